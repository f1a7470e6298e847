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

	"trendle/internal/app"
	"trendle/internal/config"
	"trendle/internal/db"
	"trendle/internal/server"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "trendle",
	Short: "Trendle CLI",
	Long: `Trendle turns a goal like "launch video for my app" into a finished
short-form video through a staged workflow:
- Project: one video from goal to export; the Director routes each turn
  by the project's current step.
- Formats: proven video structures (hook/demo/cta and friends) scored
  against your goal and platform.
- Shot list: the format instantiated into concrete segments to record.
- Segments: clips you upload against the shot list; once all required
  shots are in, editing and platform export run automatically.
- Profile: a discovery chat that fills in who you are and who you sell
  to, with per-field confidence scores.
- Trends and suggestions: current formats/hashtags plus accept/reject
  editing suggestions for any analyzed video.`,
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
	viper.SetEnvPrefix("TRENDLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(formatCmd())
	rootCmd.AddCommand(trendsCmd())
	rootCmd.AddCommand(suggestCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(versionCmd())
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			cfgPath := config.Path(workspace)
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("%s already exists", cfgPath)
			}
			if err := os.WriteFile(cfgPath, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			a, err := app.Open(cmd.Context(), workspace)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Printf("Initialized workspace, wrote %s\n", cfgPath)
			return nil
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if !cmd.Flags().Changed("addr") && a.Config.Server.Addr != "" {
					addr = a.Config.Server.Addr
				}
				if !cmd.Flags().Changed("base-path") && a.Config.Server.BasePath != "" {
					basePath = a.Config.Server.BasePath
				}
				handler, err := server.New(server.Config{
					Engine:   a.Engine,
					Agent:    a.Agent,
					Store:    a.Store,
					Trends:   a.Trends,
					Analyzer: a.Analyzer,
					Uploader: a.Uploader,
					BasePath: basePath,
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				go func() {
					<-ctx.Done()
					sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(sctx)
				}()
				fmt.Printf("Serving Trendle API on http://%s%s (OpenAPI at %s/openapi.json)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/api", "API base path")
	return cmd
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{
		Use:   "project",
		Short: "Manage video projects",
		Long:  "A project is one video from goal to export. Create it with a goal and platform, advance it with messages, and upload segments against its shot list.",
	}
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectAdvanceCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectUploadCmd())
	return prj
}

func projectCreateCmd() *cobra.Command {
	var goal, productType, platform string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project and run format matching",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				p, err := a.Engine.CreateProject(ctx, goal, productType, platform)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&goal, "goal", "", "what the video should achieve")
	cmd.Flags().StringVar(&productType, "product-type", "", "product type hint")
	cmd.Flags().StringVar(&platform, "platform", "", "target platform")
	_ = cmd.MarkFlagRequired("goal")
	_ = cmd.MarkFlagRequired("platform")
	return cmd
}

func projectAdvanceCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "advance <project-id>",
		Short: "Advance the workflow one turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				p, err := a.Engine.AdvanceProject(ctx, args[0], message)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(p)
				}
				for i := len(p.Conversation) - 1; i >= 0; i-- {
					if p.Conversation[i].Role == "assistant" {
						fmt.Println(p.Conversation[i].Content)
						break
					}
				}
				fmt.Printf("\n[step: %s]\n", p.Stage)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "user message for this turn")
	return cmd
}

func projectShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				p, err := a.Engine.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	return cmd
}

func projectListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListProjects(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Goal", "Platform", "Step", "Segments"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ProjectID, p.UserGoal, p.TargetPlatform, p.Stage,
						fmt.Sprintf("%d/%d", len(p.ShotList)-p.PendingShots(), len(p.ShotList))})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func projectUploadCmd() *cobra.Command {
	var segment, file string
	cmd := &cobra.Command{
		Use:   "upload <project-id>",
		Short: "Upload a recorded segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				locator, p, err := a.Engine.UploadSegment(ctx, args[0], segment, file, data)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"locator": locator, "project": p})
				}
				fmt.Printf("Uploaded %s -> %s\n", segment, locator)
				fmt.Printf("Pending segments: %d\n", p.PendingShots())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&segment, "segment", "", "segment name from the shot list")
	cmd.Flags().StringVar(&file, "file", "", "path to the clip")
	_ = cmd.MarkFlagRequired("segment")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func profileCmd() *cobra.Command {
	pr := &cobra.Command{
		Use:   "profile",
		Short: "Brand profile discovery",
		Long:  "A discovery chat that fills five profile fields (target customer, product, audience, platform, vibes) with confidence scores; a summary is generated once every field clears the threshold.",
	}
	pr.AddCommand(profileStartCmd())
	pr.AddCommand(profileSayCmd())
	pr.AddCommand(profileShowCmd())
	return pr
}

func profileStartCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a discovery session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				sess, err := a.Agent.NewSession(ctx, userID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(sess)
				}
				fmt.Printf("Session %s started\n", sess.SessionID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "user identifier")
	return cmd
}

func profileSayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "say <session-id> <message>",
		Short: "Send a discovery message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Agent.ProcessMessage(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Println(res.Message)
				if res.SummaryStatus != "" {
					fmt.Printf("\n[overall confidence: %.0f, summary: %s]\n", res.ConfidenceScores["overall"], res.SummaryStatus)
				} else {
					fmt.Printf("\n[overall confidence: %.0f]\n", res.ConfidenceScores["overall"])
				}
				return nil
			})
		},
	}
	return cmd
}

func profileShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a discovery session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				sess, err := a.Agent.GetSession(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(sess)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Field", "Value", "Confidence"})
				for field, value := range sess.ProfileData {
					tw.AppendRow(table.Row{field, value, fmt.Sprintf("%.0f", sess.ConfidenceScores[field])})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func formatCmd() *cobra.Command {
	f := &cobra.Command{Use: "format", Short: "Browse the viral format catalog"}
	f.AddCommand(formatListCmd())
	f.AddCommand(formatShowCmd())
	return f
}

func formatListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Store.ListFormats(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Platforms", "Segments", "Viral Score"})
				for _, f := range items {
					tw.AppendRow(table.Row{f.FormatID, f.Name, strings.Join(f.PlatformFit, ", "), len(f.Structure), f.Metrics.ViralScore})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func formatShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <format-id>",
		Short: "Show a format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				f, err := a.Store.GetFormat(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(f)
			})
		},
	}
	return cmd
}

func trendsCmd() *cobra.Command {
	tr := &cobra.Command{Use: "trends", Short: "Current trends"}
	tr.AddCommand(trendsHashtagsCmd())
	tr.AddCommand(trendsFormatsCmd())
	return tr
}

func trendsHashtagsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "hashtags",
		Short: "Trending hashtags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				tags := a.Trends.Hashtags(ctx, limit)
				if viper.GetBool("json") {
					return printJSON(tags)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Hashtag", "Videos", "Engagement"})
				for _, h := range tags {
					tw.AppendRow(table.Row{h.Hashtag, h.VideoCount, h.EngagementScore})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of hashtags")
	return cmd
}

func trendsFormatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "Trending content formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				formats := a.Trends.Formats(ctx)
				if viper.GetBool("json") {
					return printJSON(formats)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Viral Potential"})
				for _, f := range formats {
					tw.AppendRow(table.Row{f.ID, f.Name, f.Metrics.ViralPotential})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func suggestCmd() *cobra.Command {
	sg := &cobra.Command{
		Use:   "suggest",
		Short: "Video editing suggestions",
		Long:  "Analyze a video against current trends, then accept or reject the resulting suggestions.",
	}
	sg.AddCommand(suggestAnalyzeCmd())
	sg.AddCommand(suggestListCmd())
	sg.AddCommand(suggestAcceptCmd())
	sg.AddCommand(suggestRejectCmd())
	return sg
}

func suggestAnalyzeCmd() *cobra.Command {
	var videoPath, userContext string
	cmd := &cobra.Command{
		Use:   "analyze <video-id>",
		Short: "Analyze a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Analyzer.Analyze(ctx, args[0], videoPath, userContext)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Printf("Recommended format: %s\n\n", res.RecommendedFormat.Name)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Title", "Confidence"})
				for _, s := range res.Suggestions {
					tw.AppendRow(table.Row{s.ID, s.Type, s.Title, fmt.Sprintf("%.2f", s.Confidence)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&videoPath, "video-path", "", "path to the video file")
	cmd.Flags().StringVar(&userContext, "context", "", "what this video is about")
	return cmd
}

func suggestListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <video-id>",
		Short: "List suggestions for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Analyzer.List(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Title", "Status"})
				for _, s := range items {
					tw.AppendRow(table.Row{s.ID, s.Type, s.Title, s.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func suggestAcceptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accept <suggestion-id>",
		Short: "Accept a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Analyzer.Accept(ctx, args[0])
			})
		},
	}
	return cmd
}

func suggestRejectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject <suggestion-id>",
		Short: "Reject a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Analyzer.Reject(ctx, args[0])
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Event log"}
	lg.AddCommand(logTailCmd())
	return lg
}

func logTailCmd() *cobra.Command {
	var n int
	var projectID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				events, err := a.Store.LatestEvents(ctx, n, projectID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&projectID, "project", "", "project id filter")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("trendle", version)
		},
	}
}

// --- helpers ---

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.Open(ctx, viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
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
