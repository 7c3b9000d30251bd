package cmd

import (
	"fmt"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/internal/notify"
	"github.com/huangsam/filepulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// thresholdsCmd groups the classification range commands.
var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Show or change the red, amber and green day ranges",
	Long: `Manage the inclusive day ranges used to classify files.

Ranges must lie within 0-365 and must not overlap. Gaps between ranges are
allowed; files whose age falls into a gap have no band.

Examples:
  filepulse thresholds show
  filepulse thresholds set --red 30-60 --amber 8-29 --green 0-7`,
}

// thresholdsShowCmd prints the current ranges.
var thresholdsShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Print the current classification ranges",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		set := newService().Settings().Snapshot().Thresholds
		if err := ow.WriteThresholds(set, cfg); err != nil {
			contract.LogFatal("Cannot print thresholds", err)
		}
	},
}

// thresholdsSetCmd replaces one or more ranges.
var thresholdsSetCmd = &cobra.Command{
	Use:     "set",
	Short:   "Change one or more classification ranges",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := newService().Settings()
		set := store.Snapshot().Thresholds
		for _, f := range []struct {
			flag   string
			target *schema.Range
		}{{"red", &set.Red}, {"amber", &set.Amber}, {"green", &set.Green}} {
			raw := viper.GetString(f.flag)
			if raw == "" {
				continue
			}
			r, err := contract.ParseRange(raw)
			if err != nil {
				contract.LogFatal("Invalid --"+f.flag+" range", err)
			}
			*f.target = r
		}
		if err := store.SetThresholds(set); err != nil {
			contract.LogFatal("Cannot save thresholds", err)
		}
		if err := ow.WriteThresholds(set, cfg); err != nil {
			contract.LogFatal("Cannot print thresholds", err)
		}
	},
}

// emailCmd groups the email delivery commands.
var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Configure report email delivery",
	Long: `Configure who receives scheduled reports and how they are sent.

Emails are delivered through the Resend API. An API key and at least one
valid recipient are required before a schedule can be enabled.

Examples:
  filepulse email recipients "ops@example.com, lead@example.com"
  filepulse email api-key re_xxxxxxxxxxxx
  filepulse email test`,
}

// emailRecipientsCmd shows or replaces the recipient list.
var emailRecipientsCmd = &cobra.Command{
	Use:     "recipients [comma-separated-addresses]",
	Short:   "Show or replace the report recipients",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error { return sharedSetupWrapper(cmd, nil) },
	Run: func(_ *cobra.Command, args []string) {
		store := newService().Settings()
		if len(args) == 1 {
			if err := store.SetRecipients(args[0]); err != nil {
				contract.LogFatal("Cannot save recipients", err)
			}
		}
		recipients := store.Snapshot().Recipients
		if recipients == "" {
			fmt.Println("No recipients configured.")
			return
		}
		fmt.Printf("Recipients: %s\n", recipients)
	},
}

// emailAPIKeyCmd stores the email API key.
var emailAPIKeyCmd = &cobra.Command{
	Use:     "api-key <key>",
	Short:   "Store the Resend API key",
	Args:    cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error { return sharedSetupWrapper(cmd, nil) },
	Run: func(_ *cobra.Command, args []string) {
		if !notify.TestAPIKey(args[0]) {
			contract.LogFatal("Cannot save API key", fmt.Errorf("the key looks too short to be valid"))
		}
		if err := newService().Settings().SetAPIKey(args[0]); err != nil {
			contract.LogFatal("Cannot save API key", err)
		}
		fmt.Println("API key saved.")
	},
}

// emailTestCmd sends a configuration test message.
var emailTestCmd = &cobra.Command{
	Use:     "test",
	Short:   "Send a test email to the configured or given recipients",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		to := viper.GetString("to")
		if err := newService().SendTest(rootCtx, to); err != nil {
			contract.LogFatal("Cannot send test email", err)
		}
		fmt.Println("Test email sent.")
	},
}
