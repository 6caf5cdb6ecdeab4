package provider

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework-validators/providervalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/ephemeral"
	"github.com/hashicorp/terraform-plugin-framework/function"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-racf/internal/provider/validators"
	"github.com/isometry/terraform-provider-racf/internal/racf"
)

// Ensure RACFProvider satisfies various provider interfaces.
var _ provider.Provider = &RACFProvider{}
var _ provider.ProviderWithFunctions = &RACFProvider{}
var _ provider.ProviderWithEphemeralResources = &RACFProvider{}
var _ provider.ProviderWithConfigValidators = &RACFProvider{}

// RACFProvider defines the provider implementation.
type RACFProvider struct {
	// version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	version string
}

// RACFProviderModel describes the provider data model.
type RACFProviderModel struct {
	// Connection settings
	Host      types.String `tfsdk:"host"`
	Port      types.Int64  `tfsdk:"port"`
	Transport types.String `tfsdk:"transport"`

	// Authentication settings
	Username types.String `tfsdk:"username"`
	Password types.String `tfsdk:"password"`

	// SSH settings
	KnownHostsFile        types.String `tfsdk:"known_hosts_file"`
	InsecureIgnoreHostKey types.Bool   `tfsdk:"insecure_ignore_host_key"`

	// Terminal settings
	ScreenWidth        types.Int64      `tfsdk:"screen_width"`
	ContinuationMarker types.String     `tfsdk:"continuation_marker"`
	CompletionMarker   types.String     `tfsdk:"completion_marker"`
	ErrorPatterns      types.List       `tfsdk:"error_patterns"`
	LogonSteps         []logonStepModel `tfsdk:"logon_steps"`

	// Timeouts
	ConnectTimeout types.Int64 `tfsdk:"connect_timeout"`
	CommandTimeout types.Int64 `tfsdk:"command_timeout"`

	// Session pool settings
	MaxSessions    types.Int64 `tfsdk:"max_sessions"`
	MaxIdleTime    types.Int64 `tfsdk:"max_idle_time"`
	AcquireTimeout types.Int64 `tfsdk:"acquire_timeout"`

	// Parsing
	GrammarFile types.String `tfsdk:"grammar_file"`
}

// logonStepModel is one prompt/response pair of the logon dialogue.
type logonStepModel struct {
	Expect  types.String `tfsdk:"expect"`
	Respond types.String `tfsdk:"respond"`
}

func (p *RACFProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "racf"
	resp.Version = p.version
}

func (p *RACFProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "The RACF provider manages z/OS RACF users, groups and group connections by driving " +
			"TSO line-mode sessions over telnet or SSH. Sessions are pooled and commands are serialized per session.",
		Attributes: map[string]schema.Attribute{
			// Connection settings
			"host": schema.StringAttribute{
				MarkdownDescription: "Host name or address of the z/OS system. " +
					"Can be set via the `RACF_HOST` environment variable.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"port": schema.Int64Attribute{
				MarkdownDescription: "TCP port. Defaults to `23` for telnet and `22` for SSH. " +
					"Can be set via the `RACF_PORT` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.Between(1, 65535),
				},
			},
			"transport": schema.StringAttribute{
				MarkdownDescription: "Session transport, `telnet` or `ssh`. Defaults to `telnet`. " +
					"Can be set via the `RACF_TRANSPORT` environment variable.",
				Optional: true,
				Validators: []validator.String{
					validators.CaseInsensitiveOneOf(racf.TransportTelnet, racf.TransportSSH),
				},
			},

			// Authentication settings
			"username": schema.StringAttribute{
				MarkdownDescription: "TSO user ID used to log on. " +
					"Can be set via the `RACF_USERNAME` environment variable.",
				Optional: true,
			},
			"password": schema.StringAttribute{
				MarkdownDescription: "Password of the logon user ID. " +
					"Can be set via the `RACF_PASSWORD` environment variable.",
				Optional:  true,
				Sensitive: true,
			},

			// SSH settings
			"known_hosts_file": schema.StringAttribute{
				MarkdownDescription: "OpenSSH known_hosts file used to verify the host key. Defaults to `~/.ssh/known_hosts`. " +
					"Can be set via the `RACF_KNOWN_HOSTS_FILE` environment variable.",
				Optional: true,
			},
			"insecure_ignore_host_key": schema.BoolAttribute{
				MarkdownDescription: "Skip SSH host key verification. Not recommended for production. Defaults to `false`. " +
					"Can be set via the `RACF_INSECURE_IGNORE_HOST_KEY` environment variable.",
				Optional: true,
			},

			// Terminal settings
			"screen_width": schema.Int64Attribute{
				MarkdownDescription: "Terminal width in columns. Host output wraps at this width. Defaults to `80`. " +
					"Can be set via the `RACF_SCREEN_WIDTH` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.AtLeast(40),
				},
			},
			"continuation_marker": schema.StringAttribute{
				MarkdownDescription: "Text the host prints when more output is pending. Defaults to `***`.",
				Optional:            true,
			},
			"completion_marker": schema.StringAttribute{
				MarkdownDescription: "Text the host prints when a command has completed. Defaults to `READY`.",
				Optional:            true,
			},
			"error_patterns": schema.ListAttribute{
				MarkdownDescription: "Regular expressions matched against each output line to detect failed commands. " +
					"Defaults to the TSO and RACF message identifiers `IKJnnnnn`, `ICHnnnnnI` and `IRRnnnnnI`.",
				ElementType: types.StringType,
				Optional:    true,
			},
			"logon_steps": schema.ListNestedAttribute{
				MarkdownDescription: "Prompt and response pairs of the logon dialogue. `{username}` and `{password}` " +
					"in a response are replaced with the configured credentials. Defaults to a TSO line-mode logon.",
				Optional: true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"expect": schema.StringAttribute{
							MarkdownDescription: "Text that identifies the prompt.",
							Required:            true,
						},
						"respond": schema.StringAttribute{
							MarkdownDescription: "Line sent when the prompt appears.",
							Required:            true,
						},
					},
				},
			},

			// Timeouts
			"connect_timeout": schema.Int64Attribute{
				MarkdownDescription: "Connection and logon timeout in seconds. Defaults to `30`. " +
					"Can be set via the `RACF_CONNECT_TIMEOUT` environment variable.",
				Optional: true,
			},
			"command_timeout": schema.Int64Attribute{
				MarkdownDescription: "Maximum time in seconds to wait for a command to complete. Defaults to `60`. " +
					"Can be set via the `RACF_COMMAND_TIMEOUT` environment variable.",
				Optional: true,
			},

			// Session pool settings
			"max_sessions": schema.Int64Attribute{
				MarkdownDescription: "Maximum number of concurrent TSO sessions. Defaults to `2`. " +
					"Can be set via the `RACF_MAX_SESSIONS` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.Between(1, racf.MaxSessionPoolLimit),
				},
			},
			"max_idle_time": schema.Int64Attribute{
				MarkdownDescription: "Idle time in seconds after which a session is logged off. Defaults to `600` (10 minutes). " +
					"Can be set via the `RACF_MAX_IDLE_TIME` environment variable.",
				Optional: true,
			},
			"acquire_timeout": schema.Int64Attribute{
				MarkdownDescription: "Maximum time in seconds to wait for a free session. Defaults to `120`. " +
					"Can be set via the `RACF_ACQUIRE_TIMEOUT` environment variable.",
				Optional: true,
			},

			// Parsing
			"grammar_file": schema.StringAttribute{
				MarkdownDescription: "YAML or JSON grammar document for LISTUSER and LISTGRP output. Its grammars replace " +
					"or extend the built-in ones, so site-specific segments can be parsed. " +
					"Can be set via the `RACF_GRAMMAR_FILE` environment variable.",
				Optional: true,
			},
		},
	}
}

// ConfigValidators implements provider.ProviderWithConfigValidators.
func (p *RACFProvider) ConfigValidators(ctx context.Context) []provider.ConfigValidator {
	return []provider.ConfigValidator{
		// Host key verification and its bypass are mutually exclusive
		providervalidator.Conflicting(
			path.MatchRoot("known_hosts_file"),
			path.MatchRoot("insecure_ignore_host_key"),
		),
	}
}

func (p *RACFProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var data RACFProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	// Configure logging subsystems and set up provider context
	ctx = p.configureLogging(ctx)

	tflog.Info(ctx, "Configuring RACF provider", map[string]any{
		"version": p.version,
	})

	sessionConfig, poolConfig := p.buildClientConfig(ctx, &data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	grammars, err := p.loadGrammars(data.GrammarFile)
	if err != nil {
		resp.Diagnostics.AddAttributeError(
			path.Root("grammar_file"),
			"Unable to Load Grammar File",
			"The listing grammar document could not be loaded.\n\n"+
				"Grammar Error: "+err.Error(),
		)
		return
	}

	// Create RACF client with logging context
	start := time.Now()
	client, err := racf.NewClient(initializeClientLogging(ctx), sessionConfig, poolConfig)
	if err != nil {
		tflog.Error(ctx, "Failed to create RACF client", map[string]any{
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		resp.Diagnostics.AddError(
			"Unable to Create RACF Client",
			"An unexpected error occurred when creating the RACF client. "+
				"If the error is not clear, please contact the provider developers.\n\n"+
				"RACF Client Error: "+err.Error(),
		)
		return
	}

	tflog.Debug(ctx, "RACF client created successfully", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
	})

	// Test connection and logon
	start = time.Now()
	if err := client.Connect(ctx); err != nil {
		tflog.Error(ctx, "Connection test failed", map[string]any{
			"error":          err.Error(),
			"error_category": string(racf.GetErrorCategory(err)),
			"duration_ms":    time.Since(start).Milliseconds(),
		})
		_ = client.Close()
		resp.Diagnostics.AddError(
			"Unable to Connect to RACF",
			"The provider could not open a TSO session. "+
				"Please verify the host, transport and credentials.\n\n"+
				"Connection Error: "+err.Error(),
		)
		return
	}

	tflog.Info(ctx, "Connection established successfully", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
	})

	providerData, err := racf.NewProviderData(client, grammars)
	if err != nil {
		_ = client.Close()
		resp.Diagnostics.AddError(
			"Unable to Initialize Provider",
			"Provider Error: "+err.Error(),
		)
		return
	}
	providerData.Username = strings.ToUpper(sessionConfig.Username)

	tflog.Info(ctx, "RACF provider configured successfully")

	// Make provider data available to resources and data sources
	resp.DataSourceData = providerData
	resp.ResourceData = providerData
}

// configureLogging sets up logging configuration based on environment variables.
func (p *RACFProvider) configureLogging(ctx context.Context) context.Context {
	// Add persistent fields for all logs
	ctx = tflog.SetField(ctx, "provider", "racf")
	ctx = tflog.SetField(ctx, "provider_version", p.version)
	ctx = tflog.MaskFieldValuesWithFieldKeys(ctx, "password")

	tflog.Debug(ctx, "RACF provider logging configured")

	return ctx
}

// buildClientConfig constructs the session and pool configuration from provider config and environment variables.
func (p *RACFProvider) buildClientConfig(ctx context.Context, data *RACFProviderModel, diags *diag.Diagnostics) (*racf.SessionConfig, *racf.PoolConfig) {
	config := racf.NewSessionConfig()
	poolConfig := racf.NewPoolConfig()

	config.Host = p.getStringValue(data.Host, "RACF_HOST")
	if config.Host == "" {
		diags.AddAttributeError(
			path.Root("host"),
			"Missing Host Configuration",
			"The z/OS host must be configured with the 'host' attribute or the RACF_HOST environment variable.",
		)
	}

	config.Transport = strings.ToLower(p.getStringValue(data.Transport, "RACF_TRANSPORT"))
	if config.Transport == "" {
		config.Transport = racf.TransportTelnet
	}
	if config.Transport != racf.TransportTelnet && config.Transport != racf.TransportSSH {
		diags.AddAttributeError(
			path.Root("transport"),
			"Invalid Transport",
			"The transport must be 'telnet' or 'ssh', got: "+config.Transport,
		)
	}

	defaultPort := int64(23)
	if config.Transport == racf.TransportSSH {
		defaultPort = 22
	}
	config.Port = int(p.getInt64Value(data.Port, "RACF_PORT", defaultPort))

	// Authentication settings - validate that we have credentials
	config.Username = p.getStringValue(data.Username, "RACF_USERNAME")
	config.Password = p.getStringValue(data.Password, "RACF_PASSWORD")
	if config.Username == "" || config.Password == "" {
		diags.AddError(
			"Missing Authentication Configuration",
			"A TSO user ID and password must be configured. "+
				"Provide 'username' and 'password' attributes or set RACF_USERNAME and RACF_PASSWORD environment variables.",
		)
	}

	// SSH settings
	config.KnownHostsFile = p.getStringValue(data.KnownHostsFile, "RACF_KNOWN_HOSTS_FILE")
	config.InsecureIgnoreHostKey = p.getBoolValue(data.InsecureIgnoreHostKey, "RACF_INSECURE_IGNORE_HOST_KEY", false)
	if config.InsecureIgnoreHostKey && config.Transport == racf.TransportSSH {
		tflog.Warn(ctx, "SSH host key verification is disabled")
	}

	// Terminal settings
	if width := p.getInt64Value(data.ScreenWidth, "RACF_SCREEN_WIDTH", 80); width > 0 {
		config.Width = int(width)
	}
	if marker := data.ContinuationMarker.ValueString(); marker != "" {
		config.ContinuationMarker = marker
	}
	if marker := data.CompletionMarker.ValueString(); marker != "" {
		config.CompletionMarker = marker
	}
	if !data.ErrorPatterns.IsNull() && !data.ErrorPatterns.IsUnknown() {
		var patterns []string
		diags.Append(data.ErrorPatterns.ElementsAs(ctx, &patterns, false)...)
		config.ErrorPatterns = patterns
	}
	if len(data.LogonSteps) > 0 {
		config.LogonSteps = make([]racf.LogonStep, len(data.LogonSteps))
		for i, step := range data.LogonSteps {
			config.LogonSteps[i] = racf.LogonStep{
				Expect:  step.Expect.ValueString(),
				Respond: step.Respond.ValueString(),
			}
		}
	}

	// Timeouts
	if connectTimeout := p.getInt64Value(data.ConnectTimeout, "RACF_CONNECT_TIMEOUT", 30); connectTimeout > 0 {
		config.DialTimeout = time.Duration(connectTimeout) * time.Second
	}
	if commandTimeout := p.getInt64Value(data.CommandTimeout, "RACF_COMMAND_TIMEOUT", 60); commandTimeout > 0 {
		config.CommandTimeout = time.Duration(commandTimeout) * time.Second
	}

	// Session pool settings
	if maxSessions := p.getInt64Value(data.MaxSessions, "RACF_MAX_SESSIONS", 2); maxSessions > 0 {
		poolConfig.MaxSessions = int(min(maxSessions, racf.MaxSessionPoolLimit))
	}
	if maxIdleTime := p.getInt64Value(data.MaxIdleTime, "RACF_MAX_IDLE_TIME", 600); maxIdleTime > 0 {
		poolConfig.MaxIdleTime = time.Duration(maxIdleTime) * time.Second
	}
	if acquireTimeout := p.getInt64Value(data.AcquireTimeout, "RACF_ACQUIRE_TIMEOUT", 120); acquireTimeout > 0 {
		poolConfig.AcquireTimeout = time.Duration(acquireTimeout) * time.Second
	}

	return config, poolConfig
}

// loadGrammars returns the built-in grammars, overlaid with the configured
// grammar file when one is set.
func (p *RACFProvider) loadGrammars(file types.String) (*racf.GrammarSet, error) {
	grammars, err := racf.DefaultGrammars()
	if err != nil {
		return nil, err
	}

	grammarPath := p.getStringValue(file, "RACF_GRAMMAR_FILE")
	if grammarPath == "" {
		return grammars, nil
	}

	overlay, err := racf.LoadGrammarFile(grammarPath)
	if err != nil {
		return nil, err
	}
	return grammars.Merge(overlay), nil
}

// Helper functions for configuration value resolution

func (p *RACFProvider) getStringValue(configValue types.String, envVar string) string {
	if !configValue.IsNull() && configValue.ValueString() != "" {
		return configValue.ValueString()
	}
	return os.Getenv(envVar)
}

func (p *RACFProvider) getBoolValue(configValue types.Bool, envVar string, defaultValue bool) bool {
	if !configValue.IsNull() {
		return configValue.ValueBool()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseBool(envValue); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *RACFProvider) getInt64Value(configValue types.Int64, envVar string, defaultValue int64) int64 {
	if !configValue.IsNull() {
		return configValue.ValueInt64()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseInt(envValue, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *RACFProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		NewUserResource,
		NewGroupResource,
		NewGroupMembershipResource,
	}
}

func (p *RACFProvider) EphemeralResources(ctx context.Context) []func() ephemeral.EphemeralResource {
	return []func() ephemeral.EphemeralResource{
		// No ephemeral resources defined yet
	}
}

func (p *RACFProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewGroupDataSource,
		NewGroupsDataSource,
		NewUserDataSource,
		NewUsersDataSource,
		NewWhoAmIDataSource,
	}
}

func (p *RACFProvider) Functions(ctx context.Context) []func() function.Function {
	return []func() function.Function{
		NewParseListingFunction,
		NewQuoteFunction,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &RACFProvider{
			version: version,
		}
	}
}
