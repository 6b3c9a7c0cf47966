package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"example.com/physique/internal/bodymap"
	"example.com/physique/internal/config"
	"example.com/physique/internal/domain"
	"example.com/physique/internal/muscle"
	"example.com/physique/internal/observability"
	"example.com/physique/internal/persistence/memory"
	"example.com/physique/internal/persistence/postgres"
	"example.com/physique/internal/refresh"
	"example.com/physique/internal/stream"
	"example.com/physique/internal/workout"
	authlib "example.com/physique/pkg/auth"
)

var rootCmd = &cobra.Command{
	Use:          "physiquectl",
	Short:        "physiquectl - inspect muscle freshness scores and body-map models",
	SilenceUsage: true,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [name]",
	Short: "Show which muscles an exercise trains",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResolve,
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a workout history file",
	RunE:  runScore,
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify the vertices of a GLB model into muscle groups",
	RunE:  runClassify,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Open a headless body-map session against the stream endpoint",
	RunE:  runRender,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed access token using JWT_SECRET and JWT_ISSUER",
	RunE:  runToken,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recalculate every stored user's scores once",
	RunE:  runRefresh,
}

var (
	targetFlag   string
	bodyPartFlag string

	historyFlag string
	nowFlag     string

	meshFlag string

	urlFlag     string
	modelFlag   string
	userFlag    string
	accessFlag  string
	timeoutFlag time.Duration

	subjectFlag string
	scopesFlag  []string
	ttlFlag     time.Duration
)

func init() {
	resolveCmd.Flags().StringVar(&targetFlag, "target", "", "Target muscle label")
	resolveCmd.Flags().StringVar(&bodyPartFlag, "body-part", "", "Body part label")

	scoreCmd.Flags().StringVar(&historyFlag, "history", "", "JSON file holding an array of workouts")
	scoreCmd.Flags().StringVar(&nowFlag, "now", "", "Evaluate scores at this RFC3339 time instead of now")
	_ = scoreCmd.MarkFlagRequired("history")

	classifyCmd.Flags().StringVar(&meshFlag, "mesh", "", "Path to a .glb model")
	_ = classifyCmd.MarkFlagRequired("mesh")

	renderCmd.Flags().StringVar(&urlFlag, "url", "ws://localhost:8080/v1/bodymap/stream", "Stream endpoint")
	renderCmd.Flags().StringVar(&modelFlag, "model", "", "Model key to request")
	renderCmd.Flags().StringVar(&userFlag, "user", "", "User whose scores colour the model")
	renderCmd.Flags().StringVar(&accessFlag, "token", "", "Bearer token")
	renderCmd.Flags().DurationVar(&timeoutFlag, "timeout", 30*time.Second, "Give up after this long")

	tokenCmd.Flags().StringVar(&subjectFlag, "subject", "", "Token subject (user id)")
	tokenCmd.Flags().StringSliceVar(&scopesFlag, "scope", []string{"physique:read", "physique:write"}, "Granted scopes")
	tokenCmd.Flags().DurationVar(&ttlFlag, "ttl", time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(resolveCmd, scoreCmd, classifyCmd, renderCmd, tokenCmd, refreshCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type resolveOutput struct {
	Name      string      `json:"name,omitempty"`
	Target    string      `json:"target,omitempty"`
	BodyPart  string      `json:"body_part,omitempty"`
	Primary   []muscle.ID `json:"primary"`
	Secondary []muscle.ID `json:"secondary"`
	Rule      string      `json:"rule"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	var name string
	if len(args) == 1 {
		name = args[0]
	}
	if name == "" && targetFlag == "" && bodyPartFlag == "" {
		return fmt.Errorf("an exercise name, --target or --body-part is required")
	}
	svc := domain.NewService(memory.NewRepository())
	m, rule := svc.Resolve(name, targetFlag, bodyPartFlag)
	if rule == "" {
		rule = "none"
	}
	return printJSON(cmd.OutOrStdout(), resolveOutput{
		Name:      name,
		Target:    targetFlag,
		BodyPart:  bodyPartFlag,
		Primary:   nonNil(m.Primary),
		Secondary: nonNil(m.Secondary),
		Rule:      rule,
	})
}

func nonNil(ids []muscle.ID) []muscle.ID {
	if ids == nil {
		return []muscle.ID{}
	}
	return ids
}

func runScore(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(historyFlag)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	var history []workout.Workout
	if err := json.Unmarshal(raw, &history); err != nil {
		return fmt.Errorf("parse history: %w", err)
	}

	now := time.Now
	if nowFlag != "" {
		at, err := time.Parse(time.RFC3339, nowFlag)
		if err != nil {
			return fmt.Errorf("parse --now: %w", err)
		}
		now = func() time.Time { return at }
	}

	ctx := cmd.Context()
	svc := domain.NewService(memory.NewRepository(), domain.WithClock(now), domain.WithLogger(quietLogger()))
	if _, err := svc.Recalculate(ctx, "cli", history); err != nil {
		return err
	}
	summary, err := svc.Summary(ctx, "cli")
	if err != nil {
		return err
	}
	summary.UserID = ""
	return printJSON(cmd.OutOrStdout(), summary)
}

type classifyOutput struct {
	Mesh         string                `json:"mesh"`
	Vertices     int                   `json:"vertices"`
	Unclassified int                   `json:"unclassified"`
	Muscles      map[muscle.ID]int     `json:"muscles"`
	Reference    bodymap.BodyReference `json:"reference"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(meshFlag)
	if err != nil {
		return fmt.Errorf("read mesh: %w", err)
	}
	mesh, err := bodymap.DecodeGLB(meshFlag, raw)
	if err != nil {
		return err
	}
	class := bodymap.Classify(mesh)
	counts := class.Counts()
	out := classifyOutput{
		Mesh:         meshFlag,
		Vertices:     class.VertexCount(),
		Unclassified: counts[""],
		Muscles:      make(map[muscle.ID]int, len(counts)),
		Reference:    class.Reference,
	}
	for id, n := range counts {
		if id != "" {
			out.Muscles[id] = n
		}
	}
	return printJSON(cmd.OutOrStdout(), out)
}

type renderOutput struct {
	Model    string            `json:"model"`
	State    string            `json:"state"`
	Vertices int               `json:"vertices"`
	Muscles  map[muscle.ID]int `json:"muscles"`
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	endpoint, err := renderURL(urlFlag, modelFlag, userFlag)
	if err != nil {
		return err
	}
	header := http.Header{}
	if accessFlag != "" {
		header.Set("Authorization", "Bearer "+accessFlag)
	}
	conn, err := stream.Dial(ctx, endpoint, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	return render(ctx, conn, cmd.OutOrStdout())
}

func renderURL(raw, model, user string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid --url %q", raw)
	}
	q := u.Query()
	if model != "" {
		q.Set("model", model)
	}
	if user != "" {
		q.Set("user", user)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// render drives a headless surface over t until the first model is shown,
// then reports what it classified.
func render(ctx context.Context, t stream.Transport, out io.Writer) error {
	w := &watchTransport{Transport: t, done: make(chan stream.Message, 1)}
	surface := bodymap.NewSurface(w, bodymap.WithSurfaceLogger(quietLogger()))

	runErr := make(chan error, 1)
	go func() { runErr <- surface.Run(ctx) }()

	var key string
	select {
	case msg := <-w.done:
		if msg.Type == stream.TypeModelError {
			return fmt.Errorf("model %s failed: %s", msg.Key, msg.Error)
		}
		key = msg.Key
	case err := <-runErr:
		if err == nil {
			err = fmt.Errorf("stream closed before a model arrived")
		}
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for model: %w", ctx.Err())
	}

	result := renderOutput{Model: key, State: surface.State(key).String(), Muscles: map[muscle.ID]int{}}
	if class := surface.Classification(key); class != nil {
		result.Vertices = class.VertexCount()
		for id, n := range class.Counts() {
			if id != "" {
				result.Muscles[id] = n
			}
		}
	}
	return printJSON(out, result)
}

// watchTransport reports the first model outcome the surface announces.
type watchTransport struct {
	stream.Transport
	done chan stream.Message
}

func (w *watchTransport) Send(ctx context.Context, msg stream.Message) error {
	err := w.Transport.Send(ctx, msg)
	if msg.Type == stream.TypeModelReady || msg.Type == stream.TypeModelError {
		select {
		case w.done <- msg:
		default:
		}
	}
	return err
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	token, err := authlib.Issue(subjectFlag, scopesFlag, ttlFlag, authlib.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.PostgresURL == "" {
		return fmt.Errorf("POSTGRES_URL is not set")
	}
	ctx := cmd.Context()
	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	logger := observability.NewLogger("physiquectl", cfg.LogLevel)
	repo := postgres.NewRepository(pool)
	svc := domain.NewService(repo, domain.WithHistory(repo), domain.WithLogger(logger))
	report, err := refresh.NewScheduler(svc, refresh.WithLogger(logger)).RunOnce(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
