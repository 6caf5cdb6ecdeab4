package racf

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// ProviderData wraps the client and the managers built on it for use by
// Terraform resources and data sources.
type ProviderData struct {
	Client   Client      // Pooled command execution
	Grammars *GrammarSet // Listing grammars in use
	Username string      // Logon user ID of every session
	Users    *UserManager
	Groups   *GroupManager
}

// NewProviderData creates the provider data wrapper. A nil grammar set
// selects the built-in grammars.
func NewProviderData(client Client, grammars *GrammarSet) (*ProviderData, error) {
	if client == nil {
		return nil, fmt.Errorf("RACF client is not initialized")
	}
	if grammars == nil {
		var err error
		if grammars, err = DefaultGrammars(); err != nil {
			return nil, err
		}
	}
	return &ProviderData{
		Client:   client,
		Grammars: grammars,
		Users:    NewUserManager(client, grammars),
		Groups:   NewGroupManager(client, grammars),
	}, nil
}

// ValidateConnection checks that the client is available and answers.
func (pd *ProviderData) ValidateConnection(ctx context.Context) error {
	if pd.Client == nil {
		return fmt.Errorf("RACF client is not initialized")
	}

	if err := pd.Client.Ping(ctx); err != nil {
		return fmt.Errorf("RACF client connection failed: %w", err)
	}

	tflog.Debug(ctx, "Provider data validation successful", map[string]any{
		"user_segments":  pd.Grammars.Segments("USER"),
		"group_segments": pd.Grammars.Segments("GROUP"),
	})
	return nil
}

// GetClientStats returns session pool statistics.
func (pd *ProviderData) GetClientStats() PoolStats {
	if pd.Client == nil {
		return PoolStats{}
	}
	return pd.Client.Stats()
}

// GetCombinedStats returns pool statistics as log fields.
func (pd *ProviderData) GetCombinedStats() map[string]any {
	stats := pd.GetClientStats()
	return map[string]any{
		"pool": map[string]any{
			"total":          stats.Total,
			"active":         stats.Active,
			"idle":           stats.Idle,
			"created":        stats.Created,
			"evicted":        stats.Evicted,
			"errors":         stats.Errors,
			"uptime_seconds": stats.Uptime.Seconds(),
		},
	}
}
