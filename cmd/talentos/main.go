package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"talentos/internal/audit"
	"talentos/internal/config"
	"talentos/internal/db"
	"talentos/internal/domain"
	"talentos/internal/engine"
	"talentos/internal/migrate"
	"talentos/internal/repo"
	"talentos/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "talentos",
	Short: "TalentOS CLI",
	Long: `TalentOS is the operational record system for a talent agency.
It tracks talents and their public personas, keeps immutable consent records,
runs safety incidents through review, manages operational tasks and onboarding,
and writes every change to an append-only audit trail.

Data lives in a .talentos workspace directory (SQLite). Configuration is read
from talentos.yml when present; run 'talentos config init' to generate one.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TALENTOS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(talentCmd())
	rootCmd.AddCommand(personaCmd())
	rootCmd.AddCommand(consentCmd())
	rootCmd.AddCommand(incidentCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(revenueCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(serveCmd())
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect workspace config",
		Long:  "Config drives the onboarding step catalog, readiness weights, roles, and webhooks. Stored as talentos.yml in the workspace.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var agency string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default talentos.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(agency)), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&agency, "agency", "My Agency", "agency name")
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate config",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Config.Validate()
			})
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show agency dashboard",
		Long:  "The scoreboard: talent counts, open incidents, pending tasks, and active alerts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				stats, err := e.DashboardStats(ctx)
				if err != nil {
					return err
				}
				alerts, err := e.DashboardAlerts(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"stats": stats, "alerts": alerts})
				}
				fmt.Printf("Talents: %d (%d verified)\n", stats.Talents, stats.VerifiedTalents)
				fmt.Printf("Personas: %d active\n", stats.ActivePersonas)
				fmt.Printf("Consents: %d active\n", stats.ActiveConsents)
				fmt.Printf("Incidents open: %d\n", stats.OpenIncidents)
				fmt.Printf("Tasks pending: %d\n", stats.PendingTasks)
				if len(alerts) == 0 {
					fmt.Println("Alerts: none")
					return nil
				}
				fmt.Println("Alerts:")
				for _, a := range alerts {
					fmt.Printf("  [%s] %s\n", a.Kind, a.Message)
				}
				return nil
			})
		},
	}
	return cmd
}

func talentCmd() *cobra.Command {
	t := &cobra.Command{
		Use:   "talent",
		Short: "Manage talents",
		Long:  "Talents are the people on the roster. Each gets a display id (TL-XXXXXXXX), an onboarding checklist, and a verification status that feeds readiness.",
	}
	t.AddCommand(talentAddCmd())
	t.AddCommand(talentListCmd())
	t.AddCommand(talentShowCmd())
	t.AddCommand(talentVerifyCmd())
	t.AddCommand(talentDeleteCmd())
	t.AddCommand(talentReadinessCmd())
	t.AddCommand(talentOnboardingCmd())
	t.AddCommand(talentWellbeingCmd())
	return t
}

func talentAddCmd() *cobra.Command {
	var opts engine.TalentCreateOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a talent",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CreateTalent(ctx, opts)
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&opts.LegalName, "legal-name", "", "legal name")
	cmd.Flags().StringVar(&opts.StageName, "stage-name", "", "stage name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("legal-name")
	_ = cmd.MarkFlagRequired("stage-name")
	return cmd
}

func talentListCmd() *cobra.Command {
	var f repo.TalentFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List talents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListTalents(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Display", "Stage Name", "Verification", "Onboarded", "Personas"})
				for _, t := range items {
					tw.AppendRow(table.Row{t.ID, t.DisplayID, t.StageName, t.VerificationStatus, t.OnboardingComplete, t.PersonaCount})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.VerificationStatus, "verification", "", "verification status filter")
	cmd.Flags().StringVar(&f.Search, "search", "", "search names and display id")
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "max rows")
	return cmd
}

func talentShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a talent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.GetTalent(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	return cmd
}

func talentVerifyCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "verify <id>",
		Short: "Set verification status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.SetTalentVerification(ctx, args[0], status, viper.GetString("actor-id"))
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "verified", "pending, verified or rejected")
	return cmd
}

func talentDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a talent and its dependent records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				err := e.DeleteTalent(ctx, args[0], viper.GetString("actor-id"))
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
	return cmd
}

func talentReadinessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness <id>",
		Short: "Show readiness score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				r, err := e.Readiness(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(r)
			})
		},
	}
	return cmd
}

func talentOnboardingCmd() *cobra.Command {
	ob := &cobra.Command{
		Use:   "onboarding",
		Short: "Onboarding checklist",
	}
	show := &cobra.Command{
		Use:   "show <talent-id>",
		Short: "Show checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				st, err := e.Onboarding(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(st)
				}
				fmt.Printf("Progress: %d%%", st.ProgressPct)
				if st.Complete {
					fmt.Print(" (complete)")
				}
				fmt.Println()
				for _, s := range st.Steps {
					mark := " "
					if s.Completed {
						mark = "x"
					}
					fmt.Printf("  [%s] %s (%s)\n", mark, s.Name, s.StepID)
				}
				return nil
			})
		},
	}
	complete := &cobra.Command{
		Use:   "complete <talent-id> <step-id>",
		Short: "Complete a step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				st, err := e.CompleteOnboardingStep(ctx, args[0], args[1], viper.GetString("actor-id"))
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				return printJSONOrTable(st)
			})
		},
	}
	ob.AddCommand(show)
	ob.AddCommand(complete)
	return ob
}

func talentWellbeingCmd() *cobra.Command {
	wb := &cobra.Command{
		Use:   "wellbeing",
		Short: "Wellbeing check-ins",
	}
	var mood, stress int
	var note string
	add := &cobra.Command{
		Use:   "add <talent-id>",
		Short: "Record a check-in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				w, err := e.CreateWellbeingCheckin(ctx, engine.WellbeingCreateOptions{
					TalentID: args[0],
					Mood:     mood,
					Stress:   stress,
					Note:     note,
					ActorID:  viper.GetString("actor-id"),
				})
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				return printJSONOrTable(w)
			})
		},
	}
	add.Flags().IntVar(&mood, "mood", 5, "mood 1-10")
	add.Flags().IntVar(&stress, "stress", 5, "stress 1-10")
	add.Flags().StringVar(&note, "note", "", "note")
	var limit int
	list := &cobra.Command{
		Use:   "list <talent-id>",
		Short: "List check-ins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListWellbeingCheckins(ctx, args[0], limit)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "max rows")
	wb.AddCommand(add)
	wb.AddCommand(list)
	return wb
}

func personaCmd() *cobra.Command {
	p := &cobra.Command{
		Use:   "persona",
		Short: "Manage personas",
		Long:  "Personas are the public identities a talent performs under, with platform handles, a pricing tier, and a risk rating.",
	}
	p.AddCommand(personaAddCmd())
	p.AddCommand(personaListCmd())
	p.AddCommand(personaShowCmd())
	p.AddCommand(personaUpdateCmd())
	return p
}

func personaAddCmd() *cobra.Command {
	var opts engine.PersonaCreateOptions
	var handles []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a persona",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			opts.Handles = parseHandles(handles)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreatePersona(ctx, opts)
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&opts.TalentID, "talent", "", "talent id")
	cmd.Flags().StringVar(&opts.Name, "name", "", "persona name")
	cmd.Flags().StringVar(&opts.BrandingTone, "branding-tone", "", "branding tone")
	cmd.Flags().StringSliceVar(&opts.NicheTags, "niche-tag", nil, "niche tag (repeatable)")
	cmd.Flags().StringSliceVar(&opts.AllowedPlatforms, "allowed-platform", nil, "allowed platform (repeatable)")
	cmd.Flags().StringSliceVar(&opts.ProhibitedActs, "prohibited-act", nil, "prohibited act (repeatable)")
	cmd.Flags().StringArrayVar(&handles, "handle", []string{}, "platform handle as platform=handle (repeatable)")
	cmd.Flags().StringVar(&opts.PricingTier, "tier", "standard", "pricing tier (budget, standard, premium, exclusive)")
	cmd.Flags().IntVar(&opts.RiskRating, "risk", 0, "risk rating 0-100")
	_ = cmd.MarkFlagRequired("talent")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func personaListCmd() *cobra.Command {
	var f repo.PersonaFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListPersonas(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Talent", "Tier", "Status", "Risk", "Tier"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Name, p.TalentID, p.PricingTier, p.Status, p.RiskRating, engine.PersonaRiskTier(p)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.TalentID, "talent", "", "talent filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "max rows")
	return cmd
}

func personaShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a persona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.GetPersona(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	return cmd
}

func personaUpdateCmd() *cobra.Command {
	var name, tone, tier, status string
	var risk int
	var handles, nicheTags, allowedPlatforms, prohibitedActs []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a persona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := engine.PersonaUpdateOptions{ActorID: viper.GetString("actor-id")}
			if cmd.Flags().Changed("name") {
				opts.Name = &name
			}
			if cmd.Flags().Changed("branding-tone") {
				opts.BrandingTone = &tone
			}
			if cmd.Flags().Changed("niche-tag") {
				opts.NicheTags = nicheTags
			}
			if cmd.Flags().Changed("allowed-platform") {
				opts.AllowedPlatforms = allowedPlatforms
			}
			if cmd.Flags().Changed("prohibited-act") {
				opts.ProhibitedActs = prohibitedActs
			}
			if cmd.Flags().Changed("tier") {
				opts.PricingTier = &tier
			}
			if cmd.Flags().Changed("status") {
				opts.Status = &status
			}
			if cmd.Flags().Changed("risk") {
				opts.RiskRating = &risk
			}
			if cmd.Flags().Changed("handle") {
				opts.Handles = parseHandles(handles)
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.UpdatePersona(ctx, args[0], opts)
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "persona name")
	cmd.Flags().StringVar(&tone, "branding-tone", "", "branding tone")
	cmd.Flags().StringSliceVar(&nicheTags, "niche-tag", nil, "niche tag (repeatable)")
	cmd.Flags().StringSliceVar(&allowedPlatforms, "allowed-platform", nil, "allowed platform (repeatable)")
	cmd.Flags().StringSliceVar(&prohibitedActs, "prohibited-act", nil, "prohibited act (repeatable)")
	cmd.Flags().StringVar(&tier, "tier", "", "pricing tier (budget, standard, premium, exclusive)")
	cmd.Flags().StringVar(&status, "status", "", "status (active, inactive)")
	cmd.Flags().IntVar(&risk, "risk", 0, "risk rating 0-100")
	cmd.Flags().StringArrayVar(&handles, "handle", []string{}, "platform handle as platform=handle")
	return cmd
}

func consentCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "consent",
		Short: "Manage consent records",
		Long:  "Consent records are immutable. They can only be revoked or expire; revocation is permanent and flags related content for review.",
	}
	c.AddCommand(consentAddCmd())
	c.AddCommand(consentListCmd())
	c.AddCommand(consentShowCmd())
	c.AddCommand(consentRevokeCmd())
	return c
}

func consentAddCmd() *cobra.Command {
	var opts engine.ConsentCreateOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record consent",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.CreateConsent(ctx, opts)
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&opts.PersonaID, "persona", "", "persona id")
	cmd.Flags().StringVar(&opts.ActType, "act-type", "", "act type")
	cmd.Flags().StringArrayVar(&opts.PartnerIDs, "partner", []string{}, "partner id (repeatable)")
	cmd.Flags().StringVar(&opts.DistributionScope, "scope", "", "distribution scope (platform_only, multi_platform, exclusive, unrestricted)")
	cmd.Flags().StringVar(&opts.RevocationRules, "revocation-rules", "", "revocation rules")
	cmd.Flags().StringVar(&opts.ExpiryDate, "expires", "", "expiry (RFC3339)")
	_ = cmd.MarkFlagRequired("persona")
	_ = cmd.MarkFlagRequired("act-type")
	_ = cmd.MarkFlagRequired("scope")
	_ = cmd.MarkFlagRequired("revocation-rules")
	return cmd
}

func consentListCmd() *cobra.Command {
	var f repo.ConsentFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List consents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListConsents(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Persona", "Act", "Scope", "Status", "Expires"})
				for _, c := range items {
					exp := ""
					if c.ExpiryDate != nil {
						exp = *c.ExpiryDate
					}
					tw.AppendRow(table.Row{c.ID, c.PersonaID, c.ActType, c.DistributionScope, c.Status, exp})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.PersonaID, "persona", "", "persona filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter (active, revoked, expired)")
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "max rows")
	return cmd
}

func consentShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a consent record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.GetConsent(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	return cmd
}

func consentRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke consent (permanent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.RevokeConsent(ctx, args[0], viper.GetString("actor-id"))
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				return printJSONOrTable(c)
			})
		},
	}
	return cmd
}

func incidentCmd() *cobra.Command {
	i := &cobra.Command{
		Use:   "incident",
		Short: "Manage safety incidents",
		Long:  "Incidents flow open -> investigating -> resolved -> closed. Resolution requires notes; an open incident can be resolved directly.",
	}
	i.AddCommand(incidentReportCmd())
	i.AddCommand(incidentListCmd())
	i.AddCommand(incidentShowCmd())
	i.AddCommand(incidentStatusCmd())
	i.AddCommand(incidentResolveCmd())
	return i
}

func incidentReportCmd() *cobra.Command {
	var opts engine.IncidentCreateOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report an incident",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				in, err := e.CreateIncident(ctx, opts)
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				return printJSONOrTable(in)
			})
		},
	}
	cmd.Flags().StringVar(&opts.TalentID, "talent", "", "talent id")
	cmd.Flags().StringVar(&opts.PersonaID, "persona", "", "persona id")
	cmd.Flags().StringVar(&opts.Type, "type", "", "incident type")
	cmd.Flags().StringVar(&opts.Severity, "severity", "", "severity (low, medium, high, critical)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("severity")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func incidentListCmd() *cobra.Command {
	var f repo.IncidentFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List incidents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListIncidents(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Severity", "Status", "Talent", "Created"})
				for _, in := range items {
					talent := ""
					if in.TalentID != nil {
						talent = *in.TalentID
					}
					tw.AppendRow(table.Row{in.ID, in.Type, in.Severity, in.Status, talent, in.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.TalentID, "talent", "", "talent filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.Severity, "severity", "", "severity filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "max rows")
	return cmd
}

func incidentShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an incident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				in, err := e.GetIncident(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(in)
			})
		},
	}
	return cmd
}

func incidentStatusCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "set-status <id>",
		Short: "Transition an incident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				in, err := e.SetIncidentStatus(ctx, args[0], status, viper.GetString("actor-id"))
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				return printJSONOrTable(in)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "new status (investigating, closed)")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func incidentResolveCmd() *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve an incident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				in, err := e.ResolveIncident(ctx, args[0], notes, viper.GetString("actor-id"))
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				return printJSONOrTable(in)
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "resolution notes")
	_ = cmd.MarkFlagRequired("notes")
	return cmd
}

func taskCmd() *cobra.Command {
	t := &cobra.Command{
		Use:   "task",
		Short: "Manage operational tasks",
		Long:  "Tasks are the agency's work items. Statuses: pending, in_progress, blocked, completed. Completed is terminal.",
	}
	t.AddCommand(taskCreateCmd())
	t.AddCommand(taskListCmd())
	t.AddCommand(taskShowCmd())
	t.AddCommand(taskStatusCmd())
	t.AddCommand(taskBoardCmd())
	return t
}

func taskCreateCmd() *cobra.Command {
	var opts engine.TaskCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CreateTask(ctx, opts)
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "title")
	cmd.Flags().StringVar(&opts.Type, "type", "general", "task type")
	cmd.Flags().StringVar(&opts.Priority, "priority", "medium", "priority (low, medium, high, urgent)")
	cmd.Flags().StringVar(&opts.AssigneeID, "assignee", "", "assignee id")
	cmd.Flags().StringVar(&opts.TalentID, "talent", "", "related talent id")
	cmd.Flags().StringVar(&opts.DueDate, "due", "", "due date (RFC3339)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func taskListCmd() *cobra.Command {
	var f repo.TaskFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListTasks(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Type", "Priority", "Status", "Assignee", "Due"})
				for _, t := range items {
					assignee := ""
					if t.AssigneeID != nil {
						assignee = *t.AssigneeID
					}
					due := ""
					if t.DueDate != nil {
						due = *t.DueDate
					}
					tw.AppendRow(table.Row{t.ID, t.Title, t.Type, t.Priority, t.Status, assignee, due})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.Type, "type", "", "type filter")
	cmd.Flags().StringVar(&f.Priority, "priority", "", "priority filter")
	cmd.Flags().StringVar(&f.AssigneeID, "assignee", "", "assignee filter")
	cmd.Flags().StringVar(&f.TalentID, "talent", "", "talent filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "max rows")
	return cmd
}

func taskShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	return cmd
}

func taskStatusCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "set-status <id>",
		Short: "Transition a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.SetTaskStatus(ctx, args[0], status, viper.GetString("actor-id"))
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "new status")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func taskBoardCmd() *cobra.Command {
	var assignee string
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show tasks grouped by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				board, err := e.TaskBoard(ctx, repo.TaskFilters{AssigneeID: assignee})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(board)
				}
				for _, status := range []string{"pending", "in_progress", "blocked", "completed"} {
					fmt.Printf("%s (%d)\n", status, len(board[status]))
					for _, t := range board[status] {
						fmt.Printf("  %s  %s\n", t.ID, t.Title)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee filter")
	return cmd
}

func revenueCmd() *cobra.Command {
	r := &cobra.Command{
		Use:   "revenue",
		Short: "Revenue records",
	}
	var opts engine.RevenueCreateOptions
	add := &cobra.Command{
		Use:   "add",
		Short: "Record revenue",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entry, err := e.CreateRevenueEntry(ctx, opts)
				if err != nil && !engine.IsAuditWarning(err) {
					return err
				}
				warnAudit(err)
				return printJSONOrTable(entry)
			})
		},
	}
	add.Flags().StringVar(&opts.PersonaID, "persona", "", "persona id")
	add.Flags().StringVar(&opts.Type, "type", "", "revenue type")
	add.Flags().Float64Var(&opts.GrossAmount, "gross", 0, "gross amount")
	add.Flags().Float64Var(&opts.PlatformFee, "fee", 0, "platform fee")
	add.Flags().StringVar(&opts.OccurredAt, "occurred", "", "occurred at (RFC3339)")
	_ = add.MarkFlagRequired("persona")
	_ = add.MarkFlagRequired("type")
	_ = add.MarkFlagRequired("gross")

	var f repo.RevenueFilters
	list := &cobra.Command{
		Use:   "list",
		Short: "List revenue entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListRevenueEntries(ctx, f)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	list.Flags().StringVar(&f.PersonaID, "persona", "", "persona filter")
	list.Flags().StringVar(&f.Type, "type", "", "type filter")
	list.Flags().IntVar(&f.Limit, "limit", 50, "max rows")

	var personaID string
	summary := &cobra.Command{
		Use:   "summary",
		Short: "Month-to-date summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.RevenueMonthToDate(ctx, personaID)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	summary.Flags().StringVar(&personaID, "persona", "", "persona filter")

	r.AddCommand(add)
	r.AddCommand(list)
	r.AddCommand(summary)
	return r
}

func auditCmd() *cobra.Command {
	a := &cobra.Command{
		Use:   "audit",
		Short: "Audit trail",
		Long:  "The append-only diary of every change. Tail recent entries or read one entity's full history.",
	}
	var n int
	var entityKind, entityID, actorID, action string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Tail audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var (
					items []domain.AuditEntry
					err   error
				)
				if entityKind != "" && entityID != "" {
					items, err = e.Trail.ForEntity(ctx, entityKind, entityID, n)
				} else {
					items, err = e.Trail.Recent(ctx, audit.Filters{
						EntityKind: entityKind,
						ActorID:    actorID,
						Action:     action,
						Limit:      n,
					})
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Seq", "TS", "Entity", "Action", "Actor", "Note"})
				for _, entry := range items {
					tw.AppendRow(table.Row{entry.Seq, entry.TS, entry.EntityKind + "/" + entry.EntityID, entry.Action, entry.ActorID, entry.Note})
				}
				tw.Render()
				return nil
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of entries")
	tail.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind filter")
	tail.Flags().StringVar(&entityID, "entity-id", "", "entity id (with --entity-kind, shows full history)")
	tail.Flags().StringVar(&actorID, "actor", "", "actor filter")
	tail.Flags().StringVar(&action, "action", "", "action filter")
	a.AddCommand(tail)
	return a
}

func apikeyCmd() *cobra.Command {
	k := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}
	var name, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key (secret shown once)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				key, raw, err := e.CreateAPIKey(ctx, name, role)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"id": key.ID, "name": key.Name, "role": key.Role, "key": raw})
				}
				fmt.Printf("id:   %s\nname: %s\nrole: %s\nkey:  %s\n", key.ID, key.Name, key.Role, raw)
				fmt.Println("store the key now; it cannot be recovered")
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "key name")
	create.Flags().StringVar(&role, "role", "", "role granted to the key")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("role")

	list := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(keys)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}

	k.AddCommand(create)
	k.AddCommand(list)
	k.AddCommand(del)
	return k
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var allowLegacy, metrics bool
	var rateLimit int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{
				JWTSecret:              os.Getenv("TALENTOS_JWT_SECRET"),
				AllowLegacyActorHeader: allowLegacy,
			}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("TALENTOS_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{
				Engine:             e,
				BasePath:           basePath,
				Auth:               authCfg,
				RateLimitPerSecond: rateLimit,
				MaxBodyBytes:       1 << 20,
				EnableMetrics:      metrics,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving TalentOS API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	cmd.Flags().BoolVar(&allowLegacy, "allow-legacy-actor", false, "accept X-Actor-Id header without auth (dev only)")
	cmd.Flags().BoolVar(&metrics, "metrics", true, "expose Prometheus metrics at /metrics")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "per-IP requests per second (0 disables)")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func warnAudit(err error) {
	if err != nil && engine.IsAuditWarning(err) {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
}

func parseHandles(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
