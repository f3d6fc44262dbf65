package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lairkeep/internal/app"
	"lairkeep/internal/config"
	"lairkeep/internal/db"
	"lairkeep/internal/domain"
	"lairkeep/internal/engine"
	"lairkeep/internal/migrate"
	"lairkeep/internal/repo"
	"lairkeep/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "lk",
	Short: "Lairkeep CLI",
	Long: `Lairkeep tracks the assets of a (strictly simulated) villain operation.
Core concepts:
- Workspace: your .lairkeep directory with the database; rule tunables live in the DB and can be imported from lairkeep.yml.
- Minions: hired hands with a specialty, a skill level, and a loyalty score that moves with how well you pay them. Mood is always derived from loyalty.
- Schemes: plots with a budget, a required specialty, and a target date; the success likelihood is scored from assigned crew and working gear.
- Equipment: gear that wears down while its scheme is active and costs a slice of its purchase price to maintain (doomsday devices cost more).
- Bases: lairs with capacity and upkeep; minions cannot be stationed past capacity.
- Report: fleet-wide mood counts, average success over active schemes, monthly costs, and alerts.
- Event log: diary of changes, view with 'lk log tail'.`,
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
	viper.SetEnvPrefix("LAIRKEEP")
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
	rootCmd.AddCommand(minionCmd())
	rootCmd.AddCommand(schemeCmd())
	rootCmd.AddCommand(equipmentCmd())
	rootCmd.AddCommand(baseCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(serveCmd())
}

// --- minions ---

func minionCmd() *cobra.Command {
	m := &cobra.Command{Use: "minion", Short: "Manage minions"}
	m.AddCommand(minionListCmd())
	m.AddCommand(minionAddCmd())
	m.AddCommand(minionShowCmd())
	m.AddCommand(minionUpdateCmd())
	m.AddCommand(minionDeleteCmd())
	m.AddCommand(minionPayCmd())
	m.AddCommand(minionMoodCmd())
	return m
}

func minionListCmd() *cobra.Command {
	var f repo.MinionFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List minions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				minions, err := e.Repo.ListMinions(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(minions)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Specialty", "Skill", "Loyalty", "Mood", "Scheme", "Base"})
				for _, m := range minions {
					tw.AppendRow(table.Row{m.ID, m.Name, m.Specialty, m.SkillLevel, m.LoyaltyScore, m.Mood, idOrDash(m.SchemeID), idOrDash(m.BaseID)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&f.SchemeID, "scheme", 0, "filter by scheme id")
	cmd.Flags().Int64Var(&f.BaseID, "base", 0, "filter by base id")
	cmd.Flags().StringVar(&f.Specialty, "specialty", "", "filter by specialty")
	cmd.Flags().IntVar(&f.LoyaltyMax, "loyalty-below", 0, "only minions with loyalty below this value")
	return cmd
}

func minionAddCmd() *cobra.Command {
	var name, specialty string
	var skill, loyalty int
	var salary float64
	var baseID, schemeID int64
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Hire a minion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.MinionCreateOptions{
					Name:         name,
					SkillLevel:   skill,
					Specialty:    specialty,
					SalaryDemand: salary,
					ActorID:      viper.GetString("actor-id"),
				}
				if cmd.Flags().Changed("loyalty") {
					opts.Loyalty = &loyalty
				}
				if baseID > 0 {
					opts.BaseID = &baseID
				}
				if schemeID > 0 {
					opts.SchemeID = &schemeID
				}
				m, err := e.CreateMinion(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "minion name")
	cmd.Flags().IntVar(&skill, "skill", 1, "skill level 1-10")
	cmd.Flags().StringVar(&specialty, "specialty", "", "specialty")
	cmd.Flags().IntVar(&loyalty, "loyalty", 0, "initial loyalty 0-100 (default from config)")
	cmd.Flags().Float64Var(&salary, "salary", 0, "salary demand")
	cmd.Flags().Int64Var(&baseID, "base", 0, "station at base id")
	cmd.Flags().Int64Var(&schemeID, "scheme", 0, "assign to scheme id")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("specialty")
	return cmd
}

func minionShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a minion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				m, err := r.GetMinion(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	return cmd
}

func minionUpdateCmd() *cobra.Command {
	var name, specialty string
	var skill, loyalty int
	var salary float64
	var baseID, schemeID int64
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a minion (pass --base 0 or --scheme 0 to unassign)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.MinionUpdateOptions{ID: id, ActorID: viper.GetString("actor-id")}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("skill") {
					opts.SkillLevel = &skill
				}
				if cmd.Flags().Changed("specialty") {
					opts.Specialty = &specialty
				}
				if cmd.Flags().Changed("loyalty") {
					opts.Loyalty = &loyalty
				}
				if cmd.Flags().Changed("salary") {
					opts.SalaryDemand = &salary
				}
				if cmd.Flags().Changed("base") {
					opts.SetBase = &baseID
				}
				if cmd.Flags().Changed("scheme") {
					opts.SetScheme = &schemeID
				}
				m, err := e.UpdateMinion(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "minion name")
	cmd.Flags().IntVar(&skill, "skill", 0, "skill level 1-10")
	cmd.Flags().StringVar(&specialty, "specialty", "", "specialty")
	cmd.Flags().IntVar(&loyalty, "loyalty", 0, "loyalty 0-100")
	cmd.Flags().Float64Var(&salary, "salary", 0, "salary demand")
	cmd.Flags().Int64Var(&baseID, "base", 0, "base id (0 clears)")
	cmd.Flags().Int64Var(&schemeID, "scheme", 0, "scheme id (0 clears)")
	return cmd
}

func minionDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a minion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteMinion(ctx, id, viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func minionPayCmd() *cobra.Command {
	var amount float64
	cmd := &cobra.Command{
		Use:   "pay <id>",
		Short: "Pay a minion and adjust loyalty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.PayMinion(ctx, id, amount, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	cmd.Flags().Float64Var(&amount, "amount", 0, "amount paid")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func minionMoodCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mood <id>",
		Short: "Re-derive mood from loyalty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.RefreshMood(ctx, id, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	return cmd
}

// --- schemes ---

func schemeCmd() *cobra.Command {
	s := &cobra.Command{Use: "scheme", Short: "Manage schemes"}
	s.AddCommand(schemeListCmd())
	s.AddCommand(schemeAddCmd())
	s.AddCommand(schemeShowCmd())
	s.AddCommand(schemeUpdateCmd())
	s.AddCommand(schemeDeleteCmd())
	s.AddCommand(schemeScoreCmd())
	s.AddCommand(schemeRescoreCmd())
	return s
}

func schemeScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <id>",
		Short: "Compute success likelihood without persisting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.Repo.GetScheme(ctx, id)
				if err != nil {
					return err
				}
				score, err := e.SuccessLikelihood(ctx, &s)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"scheme_id": s.ID, "success_likelihood": score})
				}
				fmt.Printf("%s: %d%%\n", s.Name, score)
				return nil
			})
		},
	}
	return cmd
}

func schemeListCmd() *cobra.Command {
	var status string
	var overBudget, overdue bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schemes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var (
					schemes []domain.Scheme
					err     error
				)
				switch {
				case overBudget:
					schemes, err = e.Repo.ListOverBudgetSchemes(ctx)
				case overdue:
					schemes, err = e.ListOverdueSchemes(ctx)
				default:
					schemes, err = e.Repo.ListSchemes(ctx, status)
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(schemes)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Status", "Budget", "Spent", "Specialty", "Target", "Success"})
				for _, s := range schemes {
					tw.AppendRow(table.Row{s.ID, s.Name, s.Status, s.Budget, s.CurrentSpending, s.RequiredSpecialty, s.TargetDate, s.SuccessLikelihood})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().BoolVar(&overBudget, "over-budget", false, "only schemes spending past budget")
	cmd.Flags().BoolVar(&overdue, "overdue", false, "only schemes past their target date and still in play")
	return cmd
}

func schemeAddCmd() *cobra.Command {
	var name, desc, specialty, status, startDate, targetDate string
	var skill, rating int
	var budget float64
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Plot a scheme",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.SchemeCreateOptions{
					Name:               name,
					Description:        desc,
					Budget:             budget,
					RequiredSkillLevel: skill,
					RequiredSpecialty:  specialty,
					Status:             status,
					TargetDate:         targetDate,
					DiabolicalRating:   rating,
					ActorID:            viper.GetString("actor-id"),
				}
				if startDate != "" {
					opts.StartDate = &startDate
				}
				s, err := e.CreateScheme(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "scheme name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().Float64Var(&budget, "budget", 0, "budget")
	cmd.Flags().IntVar(&skill, "required-skill", 1, "required skill level 1-10")
	cmd.Flags().StringVar(&specialty, "required-specialty", "", "required specialty")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default Planning)")
	cmd.Flags().StringVar(&startDate, "start", "", "start date (RFC3339)")
	cmd.Flags().StringVar(&targetDate, "target", "", "target date (RFC3339)")
	cmd.Flags().IntVar(&rating, "rating", 1, "diabolical rating 1-10")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("required-specialty")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func schemeShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a scheme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				s, err := r.GetScheme(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	return cmd
}

func schemeUpdateCmd() *cobra.Command {
	var name, desc, specialty, status, startDate, targetDate string
	var skill, rating int
	var budget, spend float64
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a scheme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.SchemeUpdateOptions{ID: id, ActorID: viper.GetString("actor-id")}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("description") {
					opts.Description = &desc
				}
				if cmd.Flags().Changed("budget") {
					opts.Budget = &budget
				}
				if cmd.Flags().Changed("spend") {
					opts.Spend = &spend
				}
				if cmd.Flags().Changed("required-skill") {
					opts.RequiredSkillLevel = &skill
				}
				if cmd.Flags().Changed("required-specialty") {
					opts.RequiredSpecialty = &specialty
				}
				if cmd.Flags().Changed("status") {
					opts.Status = &status
				}
				if cmd.Flags().Changed("start") {
					opts.StartDate = &startDate
				}
				if cmd.Flags().Changed("target") {
					opts.TargetDate = &targetDate
				}
				if cmd.Flags().Changed("rating") {
					opts.DiabolicalRating = &rating
				}
				s, err := e.UpdateScheme(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "scheme name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().Float64Var(&budget, "budget", 0, "budget")
	cmd.Flags().Float64Var(&spend, "spend", 0, "record additional spending")
	cmd.Flags().IntVar(&skill, "required-skill", 0, "required skill level 1-10")
	cmd.Flags().StringVar(&specialty, "required-specialty", "", "required specialty")
	cmd.Flags().StringVar(&status, "status", "", "status")
	cmd.Flags().StringVar(&startDate, "start", "", "start date (RFC3339, empty clears)")
	cmd.Flags().StringVar(&targetDate, "target", "", "target date (RFC3339)")
	cmd.Flags().IntVar(&rating, "rating", 0, "diabolical rating 1-10")
	return cmd
}

func schemeDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a scheme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteScheme(ctx, id, viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func schemeRescoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rescore <id>",
		Short: "Recompute and persist success likelihood",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.RescoreScheme(ctx, id, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	return cmd
}

// --- equipment ---

func equipmentCmd() *cobra.Command {
	eq := &cobra.Command{Use: "equipment", Short: "Manage equipment"}
	eq.AddCommand(equipmentListCmd())
	eq.AddCommand(equipmentAddCmd())
	eq.AddCommand(equipmentShowCmd())
	eq.AddCommand(equipmentUpdateCmd())
	eq.AddCommand(equipmentDeleteCmd())
	eq.AddCommand(equipmentDegradeCmd())
	eq.AddCommand(equipmentMaintainCmd())
	return eq
}

func equipmentListCmd() *cobra.Command {
	var f repo.EquipmentFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List equipment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListEquipment(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Category", "Condition", "State", "Scheme", "Base"})
				for _, it := range items {
					state := "degraded"
					switch {
					case e.Operational(it):
						state = "operational"
					case e.Broken(it):
						state = "broken"
					}
					tw.AppendRow(table.Row{it.ID, it.Name, it.Category, it.Condition, state, idOrDash(it.SchemeID), idOrDash(it.BaseID)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&f.SchemeID, "scheme", 0, "filter by scheme id")
	cmd.Flags().Int64Var(&f.BaseID, "base", 0, "filter by base id")
	cmd.Flags().StringVar(&f.Category, "category", "", "filter by category")
	cmd.Flags().IntVar(&f.ConditionMax, "condition-below", 0, "only items with condition below this value")
	return cmd
}

func equipmentAddCmd() *cobra.Command {
	var name, category string
	var condition int
	var price float64
	var schemeID, baseID int64
	var specialist bool
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register equipment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.EquipmentCreateOptions{
					Name:               name,
					Category:           category,
					PurchasePrice:      price,
					RequiresSpecialist: specialist,
					ActorID:            viper.GetString("actor-id"),
				}
				if cmd.Flags().Changed("condition") {
					opts.Condition = &condition
				}
				if schemeID > 0 {
					opts.SchemeID = &schemeID
				}
				if baseID > 0 {
					opts.BaseID = &baseID
				}
				eq, err := e.CreateEquipment(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(eq)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "equipment name")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().IntVar(&condition, "condition", 100, "condition 0-100")
	cmd.Flags().Float64Var(&price, "price", 0, "purchase price")
	cmd.Flags().Int64Var(&schemeID, "scheme", 0, "assign to scheme id")
	cmd.Flags().Int64Var(&baseID, "base", 0, "store at base id")
	cmd.Flags().BoolVar(&specialist, "requires-specialist", false, "requires a specialist to operate")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func equipmentShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show equipment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				eq, err := r.GetEquipment(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(eq)
			})
		},
	}
	return cmd
}

func equipmentUpdateCmd() *cobra.Command {
	var name, category string
	var condition int
	var price float64
	var schemeID, baseID int64
	var specialist bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update equipment (pass --scheme 0 or --base 0 to unassign)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.EquipmentUpdateOptions{ID: id, ActorID: viper.GetString("actor-id")}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("category") {
					opts.Category = &category
				}
				if cmd.Flags().Changed("condition") {
					opts.Condition = &condition
				}
				if cmd.Flags().Changed("price") {
					opts.PurchasePrice = &price
				}
				if cmd.Flags().Changed("scheme") {
					opts.SetScheme = &schemeID
				}
				if cmd.Flags().Changed("base") {
					opts.SetBase = &baseID
				}
				if cmd.Flags().Changed("requires-specialist") {
					opts.RequiresSpecialist = &specialist
				}
				eq, err := e.UpdateEquipment(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(eq)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "equipment name")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().IntVar(&condition, "condition", 0, "condition 0-100")
	cmd.Flags().Float64Var(&price, "price", 0, "purchase price")
	cmd.Flags().Int64Var(&schemeID, "scheme", 0, "scheme id (0 clears)")
	cmd.Flags().Int64Var(&baseID, "base", 0, "base id (0 clears)")
	cmd.Flags().BoolVar(&specialist, "requires-specialist", false, "requires a specialist to operate")
	return cmd
}

func equipmentDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete equipment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteEquipment(ctx, id, viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func equipmentDegradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "degrade <id>",
		Short: "Apply one wear step (only while its scheme is active)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				eq, err := e.DegradeEquipment(ctx, id, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(eq)
			})
		},
	}
	return cmd
}

func equipmentMaintainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintain <id>",
		Short: "Restore condition to 100 and compute cost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				eq, cost, err := e.MaintainEquipment(ctx, id, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"equipment": eq, "cost": cost})
				}
				fmt.Printf("Maintained %s for %.2f\n", eq.Name, cost)
				return nil
			})
		},
	}
	return cmd
}

// --- bases ---

func baseCmd() *cobra.Command {
	b := &cobra.Command{Use: "base", Short: "Manage bases"}
	b.AddCommand(baseListCmd())
	b.AddCommand(baseAddCmd())
	b.AddCommand(baseShowCmd())
	b.AddCommand(baseUpdateCmd())
	b.AddCommand(baseDeleteCmd())
	return b
}

func baseListCmd() *cobra.Command {
	var location string
	var doomsday, compromised bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				bases, err := e.Repo.ListBases(ctx, repo.BaseFilters{
					Location:    location,
					Doomsday:    doomsday,
					Compromised: compromised,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(bases)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Location", "Occupancy", "Capacity", "Security", "Upkeep", "Compromised"})
				for _, b := range bases {
					occupancy, err := e.BaseOccupancy(ctx, b.ID)
					if err != nil {
						return err
					}
					tw.AppendRow(table.Row{b.ID, b.Name, b.Location, occupancy, b.Capacity, b.SecurityLevel, b.MonthlyUpkeep, b.Compromised})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "filter by location")
	cmd.Flags().BoolVar(&doomsday, "doomsday", false, "only bases housing a doomsday device")
	cmd.Flags().BoolVar(&compromised, "compromised", false, "only compromised bases")
	return cmd
}

func baseAddCmd() *cobra.Command {
	var name, location string
	var capacity, security int
	var upkeep float64
	var doomsday bool
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Establish a base",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				b, err := e.CreateBase(ctx, engine.BaseCreateOptions{
					Name:              name,
					Location:          location,
					Capacity:          capacity,
					SecurityLevel:     security,
					MonthlyUpkeep:     upkeep,
					HasDoomsdayDevice: doomsday,
					ActorID:           viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(b)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "base name")
	cmd.Flags().StringVar(&location, "location", "", "location")
	cmd.Flags().IntVar(&capacity, "capacity", 1, "minion capacity")
	cmd.Flags().IntVar(&security, "security", 1, "security level 1-10")
	cmd.Flags().Float64Var(&upkeep, "upkeep", 0, "monthly upkeep")
	cmd.Flags().BoolVar(&doomsday, "doomsday", false, "holds a doomsday device")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}

func baseShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a base with occupancy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				b, err := e.Repo.GetBase(ctx, id)
				if err != nil {
					return err
				}
				occupancy, err := e.BaseOccupancy(ctx, b.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{
					"base":        b,
					"occupancy":   occupancy,
					"at_capacity": occupancy >= b.Capacity,
				})
			})
		},
	}
	return cmd
}

func baseUpdateCmd() *cobra.Command {
	var name, location string
	var capacity, security int
	var upkeep float64
	var doomsday, compromised, inspected bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.BaseUpdateOptions{ID: id, Inspected: inspected, ActorID: viper.GetString("actor-id")}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("location") {
					opts.Location = &location
				}
				if cmd.Flags().Changed("capacity") {
					opts.Capacity = &capacity
				}
				if cmd.Flags().Changed("security") {
					opts.SecurityLevel = &security
				}
				if cmd.Flags().Changed("upkeep") {
					opts.MonthlyUpkeep = &upkeep
				}
				if cmd.Flags().Changed("doomsday") {
					opts.HasDoomsdayDevice = &doomsday
				}
				if cmd.Flags().Changed("compromised") {
					opts.Compromised = &compromised
				}
				b, err := e.UpdateBase(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(b)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "base name")
	cmd.Flags().StringVar(&location, "location", "", "location")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "minion capacity")
	cmd.Flags().IntVar(&security, "security", 0, "security level 1-10")
	cmd.Flags().Float64Var(&upkeep, "upkeep", 0, "monthly upkeep")
	cmd.Flags().BoolVar(&doomsday, "doomsday", false, "holds a doomsday device")
	cmd.Flags().BoolVar(&compromised, "compromised", false, "mark compromised")
	cmd.Flags().BoolVar(&inspected, "inspected", false, "stamp last inspection to now")
	return cmd
}

func baseDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteBase(ctx, id, viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

// --- report ---

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Fleet-wide status report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rep, err := e.BuildReport(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(rep)
				}
				fmt.Printf("Minions: %d total", rep.Minions.Total)
				for mood, n := range rep.Minions.MoodCounts {
					fmt.Printf(" | %s: %d", mood, n)
				}
				fmt.Println()
				fmt.Printf("Schemes: %d total | Active: %d | Avg success likelihood: %.1f%%\n",
					rep.Schemes.Total, rep.Schemes.Active, rep.Schemes.AvgSuccess)
				fmt.Printf("Monthly costs: minions %.0f | bases %.0f | equipment %.0f | TOTAL %.0f\n",
					rep.Costs.MinionSalaries, rep.Costs.BaseUpkeep, rep.Costs.EquipmentMaintenance, rep.Costs.TotalMonthly)
				if len(rep.Alerts) == 0 {
					fmt.Println("All systems operational")
					return nil
				}
				for _, a := range rep.Alerts {
					fmt.Printf("[%s] %s\n", a.Severity, a.Message)
				}
				return nil
			})
		},
	}
	return cmd
}

// --- config ---

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect rule tunables",
		Long:  "Config is the rulebook (stored in DB): loyalty thresholds, mood labels, degradation and maintenance rates, and the valid specialty/category sets. Import from lairkeep.yml if desired.",
	}
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configImportCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Tunables())
			})
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate stored config",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c := e.Tunables()
				return c.Validate()
			})
			if viper.GetBool("json") {
				out := map[string]any{"ok": err == nil}
				if err != nil {
					out["error"] = err.Error()
				}
				return printJSON(out)
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

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write default lairkeep.yml to the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	return cmd
}

func configImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import config YAML into the workspace DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = config.Path(viper.GetString("workspace"))
			}
			cfg, err := config.FromFile(file)
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.UpsertSettings(ctx, cfg); err != nil {
					return err
				}
				fmt.Println("imported", file)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "config YAML path (default workspace lairkeep.yml)")
	return cmd
}

// --- log ---

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened: hires, payments, wear, maintenance, scoring, and more.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind string
	var entityID int64
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				events, err := r.ListEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().Int64Var(&entityID, "entity-id", 0, "entity id")
	return cmd
}

// --- api keys ---

func apikeyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	cmd.AddCommand(apikeyCreateCmd())
	cmd.AddCommand(apikeyListCmd())
	cmd.AddCommand(apikeyDeleteCmd())
	return cmd
}

func apikeyCreateCmd() *cobra.Command {
	var actor, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key (secret printed once)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actor == "" {
				actor = viper.GetString("actor-id")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				plaintext := uuid.NewString()
				key := domain.APIKey{
					ID:      uuid.NewString(),
					ActorID: actor,
					Name:    name,
					KeyHash: repo.HashAPIKey(plaintext),
				}
				if err := r.InsertAPIKey(ctx, key); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"id": key.ID, "actor_id": key.ActorID, "key": plaintext})
				}
				fmt.Printf("id: %s\nkey: %s\n", key.ID, plaintext)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "actor this key authenticates (default --actor-id)")
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx, actor)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Actor", "Name", "Created"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.ActorID, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "filter by actor")
	return cmd
}

func apikeyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}
	return cmd
}

// --- serve ---

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			cfg, err := app.ResolveConfig(cmd.Context(), workspace, r)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{
				JWTSecret:    os.Getenv("LAIRKEEP_JWT_SECRET"),
				LocalActorID: viper.GetString("actor-id"),
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
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
			if authCfg.JWTSecret == "" {
				fmt.Println("warning: LAIRKEEP_JWT_SECRET not set; serving in local mode without auth")
			}
			fmt.Printf("Serving Lairkeep API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
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
	r := repo.Repo{DB: conn}
	cfg, err := app.ResolveConfig(ctx, workspace, r)
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

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func idOrDash(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}
