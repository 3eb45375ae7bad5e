package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/tutorloop/internal/content"
	"github.com/abhisek/tutorloop/internal/learner"
	"github.com/abhisek/tutorloop/internal/llm"
	"github.com/abhisek/tutorloop/internal/plan"
	"github.com/abhisek/tutorloop/internal/session"
	"github.com/abhisek/tutorloop/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Run one lesson session on a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSession,
}

// runSession opens the event log, builds the engine, and drives one
// session from the terminal.
func runSession(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tutorloop run <topic>")
	}
	topic := strings.Join(args, " ")
	ctx := cmd.Context()
	log := newLogger(cmd)

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	provider, err := buildProvider(ctx, st, log)
	if err != nil {
		return err
	}

	services := learner.NewLLMServices(provider, learner.DefaultConfig())
	engine := session.NewEngine(
		session.NewCacheStore(0),
		provider,
		plan.NewGenerator(provider, plan.DefaultConfig(), log),
		content.NewGenerator(provider, content.DefaultConfig(), log),
		session.Collaborators{
			Personalization: services,
			Summarizer:      services,
			Assessment:      services,
			Strategy:        services,
		},
		st,
		log,
	)

	key := session.Key{UserID: localUserID(), MissionID: uuid.NewString()}
	return driveSession(ctx, engine, key, topic)
}

// buildProvider picks configuration from TUTORLOOP_* vars when a provider
// is explicitly selected, otherwise probes the standard API key vars.
func buildProvider(ctx context.Context, sink llm.EventSink, log *zap.Logger) (llm.Provider, error) {
	cfg := llm.ConfigFromEnv()
	if os.Getenv("TUTORLOOP_LLM_PROVIDER") == "" {
		discovered, ok := llm.DiscoverConfig()
		if !ok {
			return nil, fmt.Errorf("no LLM API key found; set GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, or OPENROUTER_API_KEY")
		}
		cfg = discovered
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return llm.NewProvider(ctx, cfg, sink, log)
}

// localUserID gives a stable per-machine learner id so personalization
// carries across sessions.
func localUserID() string {
	if u := os.Getenv("TUTORLOOP_USER"); u != "" {
		return u
	}
	if u, err := os.Hostname(); err == nil && u != "" {
		return u
	}
	return "local"
}

// driveSession is the terminal loop: print each turn, read a reply, and
// feed it back into the engine until the plan is done or the user quits.
func driveSession(ctx context.Context, engine *session.Engine, key session.Key, topic string) error {
	payload, err := engine.Start(ctx, key, session.StartRequest{Topic: topic})
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer engine.End(context.Background(), key)

	fmt.Printf("Lesson: %s  (enter to continue, text to answer, q to quit)\n\n", topic)

	reader := bufio.NewScanner(os.Stdin)
	for {
		if payload.Done {
			fmt.Println("\nLesson complete. Nice work!")
			return nil
		}

		if payload.AwaitingChoice {
			printChoices(payload)
			line, ok := readLine(reader)
			if !ok || line == "q" {
				return nil
			}
			resp := session.TextResponse(line)
			if n, err := strconv.Atoi(line); err == nil && n >= 1 {
				resp = session.ChoiceResponse(n - 1)
			}
			result, err := engine.Submit(ctx, key, resp)
			if err != nil {
				return fmt.Errorf("submit choice: %w", err)
			}
			if result.Done || result.TurnPayload == nil {
				fmt.Println("\nLesson complete. Nice work!")
				return nil
			}
			payload = result.TurnPayload
			printTurn(payload)
			continue
		}

		printTurn(payload)

		line, ok := readLine(reader)
		if !ok || line == "q" {
			return nil
		}
		if line != "" {
			result, err := engine.Submit(ctx, key, session.TextResponse(line))
			if err != nil {
				return fmt.Errorf("submit response: %w", err)
			}
			printFeedback(result)
		}

		payload, err = engine.NextTurn(ctx, key)
		if err != nil {
			return fmt.Errorf("next turn: %w", err)
		}
	}
}

func printTurn(p *session.TurnPayload) {
	if p.TutorTurn == nil {
		return
	}
	if p.TutorTurn.Say != "" {
		fmt.Printf("› %s\n", p.TutorTurn.Say)
	}
	if p.TutorTurn.Question != "" {
		fmt.Printf("? %s\n", p.TutorTurn.Question)
	}
	for _, m := range p.TutorTurn.Media {
		fmt.Printf("  [%s] %s\n", m.Kind, m.URL)
	}
}

func printChoices(p *session.TurnPayload) {
	fmt.Println("\nYour call:")
	for i, c := range p.Choices {
		fmt.Printf("  %d. %s\n", i+1, c.Text)
	}
	fmt.Print("> ")
}

func printFeedback(r *session.SubmitResult) {
	if r.Feedback == nil {
		return
	}
	fmt.Printf("\n%s\n", r.Feedback.Feedback)
	if r.Feedback.FollowUpQuestion != "" {
		fmt.Printf("? %s\n", r.Feedback.FollowUpQuestion)
	}
	if r.Assessment != nil && r.Assessment.Correctness != "" {
		fmt.Printf("  (%s)\n", r.Assessment.Correctness)
	}
	fmt.Println()
}

func readLine(s *bufio.Scanner) (string, bool) {
	if !s.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.Text()), true
}
