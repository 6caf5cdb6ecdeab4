package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-racf/internal/racf"
)

// initializeLogging initializes the provider subsystem for consistent logging.
// This should be called at the beginning of each data source Read method
// and resource Create/Read/Update/Delete methods.
func initializeLogging(ctx context.Context) context.Context {
	// Pattern: TF_LOG_PROVIDER_RACF_<SUBSYSTEM>
	return tflog.NewSubsystem(ctx, "provider",
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_RACF_PROVIDER"))
}

// initializeClientLogging registers the subsystems the client logs to. The
// returned context is retained by the session pool for background logging.
func initializeClientLogging(ctx context.Context) context.Context {
	ctx = tflog.NewSubsystem(ctx, racf.SubsystemRACF,
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_RACF_RACF"))
	ctx = tflog.NewSubsystem(ctx, racf.SubsystemSession,
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_RACF_SESSION"))
	ctx = tflog.SubsystemMaskFieldValuesWithFieldKeys(ctx, racf.SubsystemSession, "password")
	ctx = tflog.NewSubsystem(ctx, racf.SubsystemPool,
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_RACF_POOL"))
	return ctx
}
