// Command dorycli is a terminal client for the dory document-ingestion and
// retrieval-augmented chat backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch builds

	"github.com/dorylabs/dorycli/internal/adapter/driven/gateway"
	sqliteadapter "github.com/dorylabs/dorycli/internal/adapter/driven/sqlite"
	"github.com/dorylabs/dorycli/internal/application"
	"github.com/dorylabs/dorycli/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		usage()
		return 2
	}

	// A missing .env is fine; the system environment still applies.
	_ = godotenv.Load()

	if err := dispatch(os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(os.Stderr, "dorycli: %v\n", err)
		return 1
	}
	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: dorycli <command> [flags]

commands:
  login        exchange a Google identity token for a session
  whoami       show the signed-in user
  logout       clear the stored session
  chat         send a chat message
  ingest-text  submit raw text for ingestion
  ingest-pdf   upload a PDF and wait for processing
  status       show a document's processing status
  events       list events detected in a document`)
}

// app bundles the wired services every command works with.
type app struct {
	cfg      *config.Config
	gateway  *gateway.Client
	sessions *application.SessionManager
	logger   *slog.Logger
}

func dispatch(command string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}

	creds := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	profiles := sqliteadapter.NewProfileRepo(db)

	gw, err := gateway.NewClient(cfg.BaseURL, creds, slog.Default())
	if err != nil {
		return err
	}

	a := &app{
		cfg:      cfg,
		gateway:  gw,
		sessions: application.NewSessionManager(gw, creds, profiles, cfg.ValidateSessions, slog.Default()),
		logger:   slog.Default(),
	}

	switch command {
	case "login":
		return a.login(ctx, args)
	case "whoami":
		return a.whoami(ctx)
	case "logout":
		a.sessions.SignOut(ctx)
		fmt.Println("signed out")
		return nil
	case "chat":
		return a.chat(ctx, args)
	case "ingest-text":
		return a.ingestText(ctx, args)
	case "ingest-pdf":
		return a.ingestPDF(ctx, args)
	case "status":
		return a.status(ctx, args)
	case "events":
		return a.events(ctx, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	idToken := fs.String("id-token", "", "Google identity token to exchange")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *idToken == "" {
		return errors.New("login requires -id-token")
	}

	user, err := a.sessions.SignIn(ctx, *idToken)
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s (%s)\n", user.DisplayName(), user.Email)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	user, err := a.sessions.RestoreSession(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("%s (%s)\n", user.DisplayName(), user.Email)
	return nil
}

func (a *app) chat(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	message := fs.String("message", "", "message to send")
	noRAG := fs.Bool("no-rag", false, "answer without grounding in ingested documents")
	if err := fs.Parse(args); err != nil {
		return err
	}

	session := application.NewChatSession(a.gateway)
	reply, err := session.Send(ctx, *message, !*noRAG)
	if err != nil {
		return err
	}

	fmt.Println(reply.Response)
	for _, chunk := range reply.Chunks {
		fmt.Printf("  [chunk %s from %s, score %.2f]\n", chunk.ChunkID, chunk.DocumentID, chunk.Score)
	}
	for _, source := range reply.Sources {
		fmt.Printf("  [source %s]\n", source)
	}
	return nil
}

func (a *app) ingestText(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ingest-text", flag.ContinueOnError)
	text := fs.String("text", "", "text to ingest")
	name := fs.String("name", "", "optional filename to record")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*text) == "" {
		return errors.New("ingest-text requires -text")
	}

	result, err := a.gateway.IngestText(ctx, *text, *name)
	if err != nil {
		return err
	}
	fmt.Printf("ingested as document %s (%d chunks)\n", result.DocumentID, result.ChunksStored)
	return nil
}

func (a *app) ingestPDF(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ingest-pdf", flag.ContinueOnError)
	file := fs.String("file", "", "path to the PDF to upload")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("ingest-pdf requires -file")
	}

	pdf, err := os.ReadFile(*file)
	if err != nil {
		return err
	}

	svc := application.NewIngestService(a.gateway, a.cfg.PollInterval, a.cfg.PollBudget, a.logger)
	svc.Submit(ctx, pdf, filepath.Base(*file))

	for {
		select {
		case <-ctx.Done():
			svc.Cancel()
			return ctx.Err()
		case state := <-svc.Updates():
			switch state.Phase {
			case application.PhaseUploading:
				fmt.Println("uploading...")
			case application.PhaseProcessing:
				fmt.Printf("processing document %s...\n", state.DocumentID)
			case application.PhaseCompleted:
				fmt.Printf("document %s ready\n", state.DocumentID)
				return a.printEvents(ctx, state.DocumentID)
			case application.PhaseFailed:
				return errors.New(state.Message)
			}
		}
	}
}

func (a *app) status(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	id := fs.String("id", "", "document id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("status requires -id")
	}

	doc, err := a.gateway.GetDocument(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Printf("document %s: %s\n", doc.ID, doc.Status)
	if doc.Filename != "" {
		fmt.Printf("  filename: %s\n", doc.Filename)
	}
	if !doc.UploadedAt.IsZero() {
		fmt.Printf("  uploaded: %s\n", doc.UploadedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *app) events(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	id := fs.String("id", "", "document id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("events requires -id")
	}

	return a.printEvents(ctx, *id)
}

func (a *app) printEvents(ctx context.Context, documentID string) error {
	events, err := a.gateway.DetectedEvents(ctx, documentID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("no events detected")
		return nil
	}

	for _, event := range events {
		fmt.Printf("%s (%d%%)\n", event.Title, event.ConfidencePercent())
		if event.StartTime != nil {
			fmt.Printf("  starts: %s\n", event.StartTime.Local().Format("2006-01-02 15:04"))
		}
		if event.EndTime != nil {
			fmt.Printf("  ends:   %s\n", event.EndTime.Local().Format("2006-01-02 15:04"))
		}
		if event.Recurrence != "" {
			fmt.Printf("  repeats: %s\n", event.Recurrence)
		}
	}
	return nil
}
