package provider

import (
	"strings"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/providerserver"
	"github.com/hashicorp/terraform-plugin-go/tfprotov6"
	"github.com/hashicorp/terraform-plugin-testing/helper/resource"
)

// testAccProtoV6ProviderFactories is used to instantiate a provider during acceptance testing.
// The factory function is called for each Terraform CLI command to create a provider
// server that the CLI can connect to and interact with.
var testAccProtoV6ProviderFactories = map[string]func() (tfprotov6.ProviderServer, error){
	"racf": providerserver.NewProtocol6WithError(New("test")()),
}

func testAccPreCheck(t *testing.T) {
	testAccPreCheckWithConfig(t)
}

// TestAccProvider_WhoAmI logs on and reads the logon user.
func TestAccProvider_WhoAmI(t *testing.T) {
	config := testAccPreCheckWithConfig(t)

	resource.Test(t, resource.TestCase{
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		Steps: []resource.TestStep{
			{
				Config: TestProviderConfig() + `data "racf_whoami" "test" {}`,
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("data.racf_whoami.test", "username", strings.ToUpper(config.Username)),
					resource.TestCheckResourceAttr("data.racf_whoami.test", "id", strings.ToUpper(config.Username)),
					resource.TestCheckResourceAttrSet("data.racf_whoami.test", "default_group"),
					resource.TestCheckResourceAttrSet("data.racf_whoami.test", "sessions"),
				),
			},
		},
	})
}
