package provider

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hashicorp/terraform-plugin-testing/helper/resource"
	"github.com/hashicorp/terraform-plugin-testing/terraform"

	"github.com/isometry/terraform-provider-racf/internal/racf"
)

// Test environment configuration constants.
const (
	// Environment variables for test configuration.
	EnvTestHost          = "RACF_TEST_HOST"
	EnvTestPort          = "RACF_TEST_PORT"
	EnvTestTransport     = "RACF_TEST_TRANSPORT"
	EnvTestUsername      = "RACF_TEST_USERNAME"
	EnvTestPassword      = "RACF_TEST_PASSWORD"
	EnvTestSuperiorGroup = "RACF_TEST_SUPERIOR_GROUP"
	EnvTestInsecureSSH   = "RACF_TEST_INSECURE_IGNORE_HOST_KEY"

	// Default values for testing.
	DefaultTestTransport     = racf.TransportTelnet
	DefaultTestSuperiorGroup = "SYS1"

	// Test profile name prefixes; RACF names are at most 8 characters.
	TestGroupPrefix = "TFG"
	TestUserPrefix  = "TFU"
)

// TestConfig holds common test configuration.
type TestConfig struct {
	Host          string
	Port          int
	Transport     string
	Username      string
	Password      string
	SuperiorGroup string
	InsecureSSH   bool
}

// GetTestConfig returns the test configuration from environment variables.
func GetTestConfig() *TestConfig {
	config := &TestConfig{
		Host:          os.Getenv(EnvTestHost),
		Transport:     strings.ToLower(getEnvWithDefault(EnvTestTransport, DefaultTestTransport)),
		Username:      os.Getenv(EnvTestUsername),
		Password:      os.Getenv(EnvTestPassword),
		SuperiorGroup: strings.ToUpper(getEnvWithDefault(EnvTestSuperiorGroup, DefaultTestSuperiorGroup)),
	}
	if port, err := strconv.Atoi(os.Getenv(EnvTestPort)); err == nil {
		config.Port = port
	}
	config.InsecureSSH, _ = strconv.ParseBool(os.Getenv(EnvTestInsecureSSH))
	return config
}

// IsAccTest returns true if acceptance tests should run.
func IsAccTest() bool {
	return os.Getenv("TF_ACC") != ""
}

// SkipIfNotAccTest skips the test if TF_ACC is not set.
func SkipIfNotAccTest(t *testing.T) {
	if !IsAccTest() {
		t.Skip("Skipping acceptance test - set TF_ACC=1 to run")
	}
}

// testAccPreCheckWithConfig skips the test unless a test host is configured.
func testAccPreCheckWithConfig(t *testing.T) *TestConfig {
	SkipIfNotAccTest(t)

	config := GetTestConfig()

	if config.Host == "" {
		t.Skipf("Skipping test: %s must be set", EnvTestHost)
	}
	if config.Username == "" || config.Password == "" {
		t.Skipf("Skipping test: %s and %s must be set", EnvTestUsername, EnvTestPassword)
	}

	return config
}

// TestProviderConfig generates provider configuration for tests.
func TestProviderConfig() string {
	config := GetTestConfig()

	var sb strings.Builder
	sb.WriteString("provider \"racf\" {\n")
	fmt.Fprintf(&sb, "  host      = %q\n", config.Host)
	fmt.Fprintf(&sb, "  transport = %q\n", config.Transport)
	if config.Port > 0 {
		fmt.Fprintf(&sb, "  port      = %d\n", config.Port)
	}
	fmt.Fprintf(&sb, "  username  = %q\n", config.Username)
	fmt.Fprintf(&sb, "  password  = %q\n", config.Password)
	if config.InsecureSSH {
		sb.WriteString("  insecure_ignore_host_key = true\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// GenerateTestName returns a unique RACF name: prefix followed by random
// hex digits, eight characters in total.
func GenerateTestName(prefix string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	name := prefix + suffix
	return name[:racf.MaxNameLength]
}

// newTestClient opens a client on the test host for out-of-band checks.
func newTestClient(ctx context.Context) (*racf.ProviderData, error) {
	config := GetTestConfig()

	sessionConfig := racf.NewSessionConfig()
	sessionConfig.Host = config.Host
	sessionConfig.Transport = config.Transport
	if config.Port > 0 {
		sessionConfig.Port = config.Port
	} else if config.Transport == racf.TransportSSH {
		sessionConfig.Port = 22
	}
	sessionConfig.Username = config.Username
	sessionConfig.Password = config.Password
	sessionConfig.InsecureIgnoreHostKey = config.InsecureSSH

	poolConfig := racf.NewPoolConfig()
	poolConfig.MaxSessions = 1

	client, err := racf.NewClient(ctx, sessionConfig, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create RACF client: %w", err)
	}
	data, err := racf.NewProviderData(client, nil)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return data, nil
}

// withTestClient runs fn with a short-lived client.
func withTestClient(fn func(ctx context.Context, data *racf.ProviderData) error) error {
	ctx := context.Background()
	data, err := newTestClient(ctx)
	if err != nil {
		return err
	}
	defer data.Client.Close()
	return fn(ctx, data)
}

// Test check functions for acceptance tests

// TestCheckGroupExists verifies that a group exists on the host.
func TestCheckGroupExists(resourceName string) resource.TestCheckFunc {
	return func(s *terraform.State) error {
		rs, ok := s.RootModule().Resources[resourceName]
		if !ok {
			return fmt.Errorf("resource not found: %s", resourceName)
		}
		if rs.Primary.ID == "" {
			return fmt.Errorf("resource ID not set")
		}

		return withTestClient(func(ctx context.Context, data *racf.ProviderData) error {
			if _, err := data.Groups.GetGroup(ctx, rs.Primary.ID, &racf.ListingPlan{Base: true}); err != nil {
				return fmt.Errorf("group %s does not exist: %v", rs.Primary.ID, err)
			}
			return nil
		})
	}
}

// TestCheckGroupDestroy verifies that all test groups are destroyed.
func TestCheckGroupDestroy(s *terraform.State) error {
	return withTestClient(func(ctx context.Context, data *racf.ProviderData) error {
		for _, rs := range s.RootModule().Resources {
			if rs.Type != "racf_group" {
				continue
			}
			_, err := data.Groups.GetGroup(ctx, rs.Primary.ID, &racf.ListingPlan{Base: true})
			if err == nil {
				return fmt.Errorf("group %s still exists", rs.Primary.ID)
			}
			if !racf.IsNotFoundError(err) {
				return fmt.Errorf("unexpected error checking group %s: %v", rs.Primary.ID, err)
			}
		}
		return nil
	})
}

// TestCheckGroupDisappears deletes a group outside of Terraform.
func TestCheckGroupDisappears(resourceName string) resource.TestCheckFunc {
	return func(s *terraform.State) error {
		rs, ok := s.RootModule().Resources[resourceName]
		if !ok {
			return fmt.Errorf("resource not found: %s", resourceName)
		}
		return withTestClient(func(ctx context.Context, data *racf.ProviderData) error {
			return data.Groups.DeleteGroup(ctx, rs.Primary.ID)
		})
	}
}

// TestCheckUserExists verifies that a user exists on the host.
func TestCheckUserExists(resourceName string) resource.TestCheckFunc {
	return func(s *terraform.State) error {
		rs, ok := s.RootModule().Resources[resourceName]
		if !ok {
			return fmt.Errorf("resource not found: %s", resourceName)
		}
		if rs.Primary.ID == "" {
			return fmt.Errorf("resource ID not set")
		}

		return withTestClient(func(ctx context.Context, data *racf.ProviderData) error {
			if _, err := data.Users.GetUser(ctx, rs.Primary.ID, &racf.ListingPlan{Base: true}); err != nil {
				return fmt.Errorf("user %s does not exist: %v", rs.Primary.ID, err)
			}
			return nil
		})
	}
}

// TestCheckUserDestroy verifies that all test users are destroyed.
func TestCheckUserDestroy(s *terraform.State) error {
	return withTestClient(func(ctx context.Context, data *racf.ProviderData) error {
		for _, rs := range s.RootModule().Resources {
			if rs.Type != "racf_user" {
				continue
			}
			_, err := data.Users.GetUser(ctx, rs.Primary.ID, &racf.ListingPlan{Base: true})
			if err == nil {
				return fmt.Errorf("user %s still exists", rs.Primary.ID)
			}
			if !racf.IsNotFoundError(err) {
				return fmt.Errorf("unexpected error checking user %s: %v", rs.Primary.ID, err)
			}
		}
		return nil
	})
}

// TestCheckGroupMembers verifies that the host lists exactly count members
// in the group managed by resourceName.
func TestCheckGroupMembers(resourceName string, count int) resource.TestCheckFunc {
	return func(s *terraform.State) error {
		rs, ok := s.RootModule().Resources[resourceName]
		if !ok {
			return fmt.Errorf("resource not found: %s", resourceName)
		}
		group := rs.Primary.Attributes["group"]
		if group == "" {
			return fmt.Errorf("group not set in resource %s", resourceName)
		}

		return withTestClient(func(ctx context.Context, data *racf.ProviderData) error {
			g, err := data.Groups.GetGroup(ctx, group, &racf.ListingPlan{Base: true})
			if err != nil {
				return fmt.Errorf("failed to list group %s: %v", group, err)
			}
			if len(g.Members) != count {
				return fmt.Errorf("expected %d members in %s, found %d", count, group, len(g.Members))
			}
			return nil
		})
	}
}

// Utility functions

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// MockRACFClient provides a mock RACF client for unit testing. It answers
// each command with the output registered for the longest matching prefix.
type MockRACFClient struct {
	mu       sync.Mutex
	outputs  map[string]string
	commands []string
	stats    racf.PoolStats
	err      error
}

// NewMockRACFClient creates a new mock RACF client.
func NewMockRACFClient() *MockRACFClient {
	return &MockRACFClient{
		outputs: make(map[string]string),
		stats:   racf.PoolStats{Total: 1, Idle: 1, Created: 1},
	}
}

// SetError sets an error to be returned by every command.
func (m *MockRACFClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetOutput registers the output of commands starting with prefix.
func (m *MockRACFClient) SetOutput(prefix, output string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[prefix] = output
}

// Commands returns the commands executed so far.
func (m *MockRACFClient) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

func (m *MockRACFClient) Connect(ctx context.Context) error { return m.err }
func (m *MockRACFClient) Close() error                      { return nil }
func (m *MockRACFClient) Ping(ctx context.Context) error    { return m.err }
func (m *MockRACFClient) Stats() racf.PoolStats             { return m.stats }

func (m *MockRACFClient) Execute(ctx context.Context, command []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	text := string(command)
	m.commands = append(m.commands, text)
	if m.err != nil {
		return "", m.err
	}

	verb, rest, _ := strings.Cut(text, " ")
	best := ""
	for prefix := range m.outputs {
		if strings.HasPrefix(text, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		target, _, _ := strings.Cut(rest, " ")
		return "", racf.NewEmbeddedCommandError(verb, "ICH30001I UNABLE TO LOCATE USER ENTRY "+target)
	}
	return m.outputs[best], nil
}
