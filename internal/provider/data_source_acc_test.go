package provider

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/hashicorp/terraform-plugin-testing/helper/resource"
)

func TestAccUserDataSource(t *testing.T) {
	name := GenerateTestName(TestUserPrefix)
	superior := GetTestConfig().SuperiorGroup

	resource.Test(t, resource.TestCase{
		PreCheck:                 func() { testAccPreCheck(t) },
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		CheckDestroy:             TestCheckUserDestroy,
		Steps: []resource.TestStep{
			{
				Config: testAccUserDataSourceConfig(name, superior),
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttrPair("data.racf_user.all", "id", "racf_user.test", "id"),
					resource.TestCheckResourceAttr("data.racf_user.all", "full_name", "DATA SOURCE TEST"),
					resource.TestCheckResourceAttr("data.racf_user.all", "default_group", superior),
					resource.TestCheckResourceAttr("data.racf_user.all", "segments.OMVS.HOME", "/u/test"),
					resource.TestCheckResourceAttr("data.racf_user.omvs", "segments.OMVS.HOME", "/u/test"),
					resource.TestCheckNoResourceAttr("data.racf_user.omvs", "full_name"),
				),
			},
		},
	})
}

func TestAccUserDataSource_notFound(t *testing.T) {
	resource.Test(t, resource.TestCase{
		PreCheck:                 func() { testAccPreCheck(t) },
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		Steps: []resource.TestStep{
			{
				Config: TestProviderConfig() + fmt.Sprintf(`
data "racf_user" "test" {
  name = %q
}
`, GenerateTestName(TestUserPrefix)),
				ExpectError: regexp.MustCompile("User Not Found"),
			},
		},
	})
}

func TestAccGroupDataSource(t *testing.T) {
	name := GenerateTestName(TestGroupPrefix)
	superior := GetTestConfig().SuperiorGroup

	resource.Test(t, resource.TestCase{
		PreCheck:                 func() { testAccPreCheck(t) },
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		CheckDestroy:             TestCheckGroupDestroy,
		Steps: []resource.TestStep{
			{
				Config: TestProviderConfig() + fmt.Sprintf(`
resource "racf_group" "test" {
  name           = %[1]q
  superior_group = %[2]q
  data           = "DATA SOURCE TEST"
}

data "racf_group" "test" {
  name = racf_group.test.name
}
`, name, superior),
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("data.racf_group.test", "id", name),
					resource.TestCheckResourceAttr("data.racf_group.test", "superior_group", superior),
					resource.TestCheckResourceAttr("data.racf_group.test", "data", "DATA SOURCE TEST"),
					resource.TestCheckResourceAttr("data.racf_group.test", "members.#", "0"),
				),
			},
		},
	})
}

func TestAccUsersDataSource(t *testing.T) {
	name := GenerateTestName(TestUserPrefix)
	superior := GetTestConfig().SuperiorGroup

	resource.Test(t, resource.TestCase{
		PreCheck:                 func() { testAccPreCheck(t) },
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		CheckDestroy:             TestCheckUserDestroy,
		Steps: []resource.TestStep{
			{
				Config: TestProviderConfig() + fmt.Sprintf(`
resource "racf_user" "test" {
  name          = %[1]q
  default_group = %[2]q
}

data "racf_users" "test" {
  mask       = racf_user.test.name
  fields     = ["NAME", "DFLTGRP"]
}

data "racf_users" "names" {
  mask       = racf_user.test.name
  names_only = true
}
`, name, superior),
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("data.racf_users.test", "user_count", "1"),
					resource.TestCheckResourceAttr("data.racf_users.test", "users.0.name", name),
					resource.TestCheckResourceAttr("data.racf_users.test", "users.0.default_group", superior),
					resource.TestCheckResourceAttr("data.racf_users.names", "names.0", name),
					resource.TestCheckResourceAttr("data.racf_users.names", "users.#", "0"),
				),
			},
		},
	})
}

func TestAccGroupsDataSource(t *testing.T) {
	superior := GetTestConfig().SuperiorGroup

	resource.Test(t, resource.TestCase{
		PreCheck:                 func() { testAccPreCheck(t) },
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		Steps: []resource.TestStep{
			{
				Config: TestProviderConfig() + fmt.Sprintf(`
data "racf_groups" "test" {
  mask   = %q
  fields = ["OWNER"]
}
`, superior),
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttrSet("data.racf_groups.test", "group_count"),
					resource.TestCheckTypeSetElemAttr("data.racf_groups.test", "names.*", superior),
				),
			},
		},
	})
}

func testAccUserDataSourceConfig(name, group string) string {
	return TestProviderConfig() + fmt.Sprintf(`
resource "racf_user" "test" {
  name          = %[1]q
  default_group = %[2]q
  full_name     = "DATA SOURCE TEST"

  segments = {
    OMVS = {
      HOME = "/u/test"
    }
  }
}

data "racf_user" "all" {
  name = racf_user.test.name
}

data "racf_user" "omvs" {
  name   = racf_user.test.name
  fields = ["OMVS.HOME"]
}
`, name, group)
}
