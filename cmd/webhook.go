package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/clockset/internal/config"
	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/notify"
)

// Webhook command flags.
var (
	webhookAddFlagType     string
	webhookAddFlagTemplate string
	webhookTestFlagAll     bool
)

// webhookCmd represents the webhook command.
var webhookCmd = &cobra.Command{
	Use:     "webhook [command]",
	Aliases: []string{"wh", "hook"},
	Short:   "Configure notification webhooks",
	Long: `Configure webhooks for Discord, Slack, Teams, or custom endpoints.

Webhooks receive a message when a clock finishes and when the timer
completes. They are stored in the config file and picked up by the daemon
on its next start.

Examples:
  clockset webhook add kitchen https://discord.com/api/webhooks/...
  clockset webhook list
  clockset webhook test kitchen
  clockset webhook disable kitchen
  clockset webhook remove kitchen`,
	Annotations: map[string]string{annotationOffline: "true"},
	RunE:        runWebhookList,
}

var webhookAddCmd = &cobra.Command{
	Use:   "add NAME URL",
	Short: "Add a new webhook",
	Long: `Add a webhook for receiving notifications.

The webhook type is auto-detected from the URL:
  - Discord: discord.com/api/webhooks/...
  - Slack:   hooks.slack.com/services/...
  - Teams:   outlook.office.com/webhook/...
  - Generic: Any other URL

Examples:
  clockset webhook add kitchen https://discord.com/api/webhooks/123/abc
  clockset webhook add my-hook https://example.com/hook --type generic`,
	Args: cobra.ExactArgs(2),
	RunE: runWebhookAdd,
}

var webhookListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all webhooks",
	Args:    cobra.NoArgs,
	RunE:    runWebhookList,
}

var webhookTestCmd = &cobra.Command{
	Use:   "test [NAME]",
	Short: "Send a test notification",
	Long: `Send a test notification to verify webhook configuration.

Examples:
  clockset webhook test kitchen
  clockset webhook test --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWebhookTest,
}

var webhookRemoveCmd = &cobra.Command{
	Use:     "remove NAME",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a webhook",
	Args:    cobra.ExactArgs(1),
	RunE:    runWebhookRemove,
}

var webhookEnableCmd = &cobra.Command{
	Use:   "enable NAME",
	Short: "Enable a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setWebhookEnabled(args[0], true)
	},
}

var webhookDisableCmd = &cobra.Command{
	Use:   "disable NAME",
	Short: "Disable a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setWebhookEnabled(args[0], false)
	},
}

func init() {
	webhookAddCmd.Flags().StringVarP(&webhookAddFlagType, "type", "t", "",
		"Webhook type: discord, slack, teams, generic (auto-detected from URL if not specified)")
	webhookAddCmd.Flags().StringVar(&webhookAddFlagTemplate, "template", "",
		"Custom payload template for generic webhooks")
	webhookTestCmd.Flags().BoolVarP(&webhookTestFlagAll, "all", "a", false,
		"Test all enabled webhooks")

	webhookTestCmd.ValidArgsFunction = completeWebhookArgs
	webhookRemoveCmd.ValidArgsFunction = completeWebhookArgs
	webhookEnableCmd.ValidArgsFunction = completeWebhookArgs
	webhookDisableCmd.ValidArgsFunction = completeWebhookArgs

	webhookCmd.AddCommand(webhookAddCmd)
	webhookCmd.AddCommand(webhookListCmd)
	webhookCmd.AddCommand(webhookTestCmd)
	webhookCmd.AddCommand(webhookRemoveCmd)
	webhookCmd.AddCommand(webhookEnableCmd)
	webhookCmd.AddCommand(webhookDisableCmd)
	rootCmd.AddCommand(webhookCmd)
}

func completeWebhookArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 || !completionContext() {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, wh := range ctx.Config.Notify.Webhooks {
		if strings.HasPrefix(wh.Name, toComplete) {
			names = append(names, wh.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// findWebhook returns the index of name in hooks, or -1.
func findWebhook(hooks []model.Webhook, name string) int {
	for i, wh := range hooks {
		if wh.Name == name {
			return i
		}
	}
	return -1
}

func saveWebhooks(hooks []model.Webhook) error {
	if err := config.SetWebhooks(ctx.Fs, ctx.Config.Path, hooks); err != nil {
		return errors.NewSystemErrorWithOp("save webhooks", "could not write "+ctx.Config.Path, err)
	}
	ctx.Config.Notify.Webhooks = hooks
	return nil
}

func webhookNotFound(name string) error {
	return errors.NewUserErrorWithField("webhook", name, fmt.Sprintf("webhook %q not found", name), "Run 'clockset webhook list' to see configured webhooks.")
}

func runWebhookAdd(cmd *cobra.Command, args []string) error {
	name, rawURL := args[0], args[1]

	if !model.IsValidWebhookName(name) {
		return errors.NewUserErrorWithField("name", name, "invalid webhook name", "Use letters, digits, dash or underscore, at most 50 characters.")
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.NewUserErrorWithField("url", rawURL, "invalid webhook URL", "Use a full http:// or https:// URL.")
	}

	hooks := append([]model.Webhook(nil), ctx.Config.Notify.Webhooks...)
	if findWebhook(hooks, name) >= 0 {
		return errors.NewUserErrorWithField("webhook", name, fmt.Sprintf("webhook %q already exists", name), "")
	}

	typ := webhookAddFlagType
	if typ == "" {
		typ = model.DetectWebhookType(rawURL)
	}
	if !model.IsValidWebhookType(typ) {
		return errors.NewUserErrorWithField("type", typ, "invalid webhook type", "Use discord, slack, teams or generic.")
	}

	wh := model.Webhook{Name: name, Type: typ, URL: rawURL, Enabled: true, Template: webhookAddFlagTemplate}
	if err := saveWebhooks(append(hooks, wh)); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]any{
			"name":    wh.Name,
			"type":    wh.Type,
			"url":     logging.MaskURL(wh.URL),
			"enabled": wh.Enabled,
		})
	}

	ctx.Formatter.Println("Added webhook:", name)
	ctx.Formatter.Printf("  Type: %s\n", wh.Type)
	ctx.Formatter.Printf("  URL: %s\n", logging.MaskURL(wh.URL))
	ctx.Formatter.Println("")
	ctx.Formatter.Printf("Test with: clockset webhook test %s\n", name)
	return nil
}

func runWebhookList(cmd *cobra.Command, args []string) error {
	hooks := ctx.Config.Notify.Webhooks

	if ctx.IsJSON() {
		masked := make([]model.Webhook, len(hooks))
		for i, wh := range hooks {
			wh.URL = logging.MaskURL(wh.URL)
			masked[i] = wh
		}
		return ctx.Formatter.JSON(map[string]any{
			"webhooks": masked,
			"count":    len(masked),
		})
	}

	if len(hooks) == 0 {
		ctx.Formatter.Println("No webhooks configured.")
		ctx.Formatter.Println("")
		ctx.Formatter.Println("Add one with: clockset webhook add NAME URL")
		return nil
	}

	ctx.Formatter.Println("Configured Webhooks:")
	ctx.Formatter.Println("")
	ctx.Formatter.Printf("  %-12s %-10s %-10s %s\n", "Name", "Type", "Status", "URL")
	ctx.Formatter.Println("  " + strings.Repeat("-", 60))
	for _, wh := range hooks {
		status := "enabled"
		if !wh.Enabled {
			status = "disabled"
		}
		ctx.Formatter.Printf("  %-12s %-10s %-10s %s\n", wh.Name, wh.ResolvedType(), status, logging.MaskURL(wh.URL))
	}
	ctx.Formatter.Println("")
	ctx.Formatter.Printf("%d webhooks\n", len(hooks))
	return nil
}

func runWebhookTest(cmd *cobra.Command, args []string) error {
	cfg := ctx.Config
	dispatcher := notify.NewDispatcher(cfg.Notify, notify.NewHTTPClient(cfg.Runtime.HTTP), nil)
	c, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	var names []string
	switch {
	case webhookTestFlagAll:
		for _, wh := range cfg.Notify.EnabledWebhooks() {
			names = append(names, wh.Name)
		}
		if len(names) == 0 {
			return errors.NewUserError("no enabled webhooks to test", "Add one with 'clockset webhook add NAME URL'.")
		}
	case len(args) == 1:
		if findWebhook(cfg.Notify.Webhooks, args[0]) < 0 {
			return webhookNotFound(args[0])
		}
		names = []string{args[0]}
	default:
		return errors.NewUserError("webhook name required", "Pass a name or use --all.")
	}

	results := make([]notify.DispatchResult, 0, len(names))
	for _, name := range names {
		if !ctx.IsJSON() {
			ctx.Formatter.Printf("Testing webhook: %s\n", name)
		}
		results = append(results, dispatcher.TestWebhook(c, name))
	}

	if ctx.IsJSON() {
		out := make([]map[string]any, len(results))
		for i, r := range results {
			out[i] = map[string]any{
				"webhook":     r.WebhookName,
				"success":     r.Success,
				"status_code": r.StatusCode,
				"duration_ms": r.Duration.Milliseconds(),
				"error":       errorString(r.Error),
			}
		}
		return ctx.Formatter.JSON(map[string]any{"results": out})
	}

	cli := ctx.CLIFormatter()
	for _, r := range results {
		if r.Success {
			cli.Success(fmt.Sprintf("%s: delivered in %dms", r.WebhookName, r.Duration.Milliseconds()))
		} else {
			cli.Error(fmt.Sprintf("%s: %s", r.WebhookName, errorString(r.Error)))
		}
	}
	return nil
}

func runWebhookRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	hooks := append([]model.Webhook(nil), ctx.Config.Notify.Webhooks...)
	i := findWebhook(hooks, name)
	if i < 0 {
		return webhookNotFound(name)
	}
	if err := saveWebhooks(append(hooks[:i], hooks[i+1:]...)); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"status": "removed", "webhook": name})
	}
	ctx.Formatter.Printf("Removed webhook: %s\n", name)
	return nil
}

func setWebhookEnabled(name string, enabled bool) error {
	hooks := append([]model.Webhook(nil), ctx.Config.Notify.Webhooks...)
	i := findWebhook(hooks, name)
	if i < 0 {
		return webhookNotFound(name)
	}
	hooks[i].Enabled = enabled
	if err := saveWebhooks(hooks); err != nil {
		return err
	}

	status := "enabled"
	if !enabled {
		status = "disabled"
	}
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"status": status, "webhook": name})
	}
	ctx.Formatter.Printf("Webhook %s %s\n", name, status)
	return nil
}

// errorString returns the error message or empty string if nil.
func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
