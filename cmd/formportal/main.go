package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/internal/config"
	"github.com/goliatone/go-formportal/internal/db"
	"github.com/goliatone/go-formportal/internal/logger"
	"github.com/goliatone/go-formportal/internal/repo"
	"github.com/goliatone/go-formportal/internal/server"
	"github.com/goliatone/go-formportal/pkg/applications"
	"github.com/goliatone/go-formportal/pkg/client"
	"github.com/goliatone/go-formportal/pkg/draft"
	"github.com/goliatone/go-formportal/pkg/openapi"
	"github.com/goliatone/go-formportal/pkg/render"
	"github.com/goliatone/go-formportal/pkg/render/gotemplate"
	"github.com/goliatone/go-formportal/pkg/schema"
	"github.com/goliatone/go-formportal/pkg/session"
	"github.com/goliatone/go-formportal/pkg/tui"
)

var rootCmd = &cobra.Command{
	Use:           "formportal",
	Short:         "Dynamic insurance form portal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	initConfig()
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(fillCmd())
	rootCmd.AddCommand(appsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("FORMPORTAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to formportal.yml")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug|info|warn|error)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if level := viper.GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg, nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.Log.Level, cfg.Log.Development)
}

func loadForms(cfg *config.Config) ([]schema.FormDefinition, error) {
	if cfg.Forms.Path == "" {
		return nil, fmt.Errorf("forms.path is not configured")
	}
	raw, err := os.ReadFile(cfg.Forms.Path)
	if err != nil {
		return nil, fmt.Errorf("read form definitions: %w", err)
	}
	if cfg.Forms.OpenAPI {
		return openapi.DeriveForms(context.Background(), raw, openapi.Options{})
	}
	return schema.ParseDefinitions(raw)
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the portal HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			forms, err := loadForms(cfg)
			if err != nil {
				return err
			}

			conn, err := db.Open(db.Config{Dir: cfg.Data.Dir})
			if err != nil {
				return err
			}
			defer conn.Close()

			engine, err := gotemplate.New(gotemplate.WithFS(render.Templates))
			if err != nil {
				return err
			}
			htmlRenderer, err := render.NewHTML(engine)
			if err != nil {
				return err
			}

			srv := server.New(forms, repo.Repo{DB: conn},
				server.WithLogger(log),
				server.WithRateLimit(cfg.Server.RateLimit),
				server.WithRenderer(htmlRenderer))
			log.Info("portal listening",
				zap.String("addr", cfg.Server.Addr),
				zap.Int("forms", len(forms)))
			return http.ListenAndServe(cfg.Server.Addr, srv.Router())
		},
	}
	return cmd
}

func fillCmd() *cobra.Command {
	var (
		serverURL string
		formID    string
	)
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill an application form interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			api, err := client.New(serverURL)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			forms, err := api.FetchFormDefinitions(ctx)
			if err != nil {
				return err
			}
			form, err := pickForm(forms, formID)
			if err != nil {
				return err
			}

			drafts, err := buildDraftStore(ctx, cfg)
			if err != nil {
				return err
			}

			sess := session.New(
				session.WithLogger(log),
				session.WithDraftStore(drafts),
				session.WithOptionFetcher(api),
				session.WithSubmitter(api),
				session.WithNotifier(session.NotifierFuncs{
					OnFailure: func(formID string, err error) {
						fmt.Fprintf(os.Stderr, "submission failed for %s: %v\n", formID, err)
					},
				}),
			)
			if err := sess.SelectForm(ctx, form); err != nil {
				return err
			}

			filler, err := tui.NewFiller(sess, tui.WithLogger(log))
			if err != nil {
				return err
			}
			if err := filler.Run(ctx); err != nil {
				return err
			}
			sess.Wait()
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8087", "portal server base URL")
	cmd.Flags().StringVar(&formID, "form", "", "form id (defaults to the first available)")
	return cmd
}

// buildDraftStore honours the per-session draft lifecycle: any backend that
// survives the process gets wiped before the session starts.
func buildDraftStore(ctx context.Context, cfg *config.Config) (draft.Store, error) {
	if cfg.Drafts.Backend != "redis" {
		return draft.NewMemoryStore(), nil
	}
	store, err := draft.NewRedisStore(redis.NewClient(&redis.Options{
		Addr:     cfg.Drafts.Redis.Addr,
		Password: cfg.Drafts.Redis.Password,
		DB:       cfg.Drafts.Redis.DB,
	}))
	if err != nil {
		return nil, err
	}
	if err := store.ResetAll(ctx); err != nil {
		return nil, fmt.Errorf("reset drafts: %w", err)
	}
	return store, nil
}

func pickForm(forms []schema.FormDefinition, formID string) (schema.FormDefinition, error) {
	if len(forms) == 0 {
		return schema.FormDefinition{}, fmt.Errorf("server returned no forms")
	}
	if formID == "" {
		return forms[0], nil
	}
	for _, form := range forms {
		if form.FormID == formID {
			return form, nil
		}
	}
	return schema.FormDefinition{}, fmt.Errorf("unknown form %q", formID)
}

func appsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "Inspect submitted applications",
	}
	cmd.AddCommand(appsListCmd())
	return cmd
}

func appsListCmd() *cobra.Command {
	var (
		columns  string
		sortBy   string
		desc     bool
		page     int
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submitted applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			conn, err := db.Open(db.Config{Dir: cfg.Data.Dir})
			if err != nil {
				return err
			}
			defer conn.Close()

			apps, err := repo.Repo{DB: conn}.ListApplications(cmd.Context())
			if err != nil {
				return err
			}

			req := applications.ListRequest{
				SortBy:     sortBy,
				Descending: desc,
				Page:       page,
				PageSize:   pageSize,
			}
			if strings.TrimSpace(columns) != "" {
				req.Columns = strings.Split(columns, ",")
			}

			applications.RenderTable(os.Stdout, applications.BuildListView(apps, req))
			return nil
		},
	}
	cmd.Flags().StringVar(&columns, "columns", "", "comma separated columns (built-ins plus answer keys)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "column to sort by")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "size", 20, "page size")
	return cmd
}
