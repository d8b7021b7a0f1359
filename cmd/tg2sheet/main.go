package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/avolkov/tg2sheet/internal/bot"
	"github.com/avolkov/tg2sheet/internal/invoice"
	"github.com/avolkov/tg2sheet/internal/parsing"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Local development keeps secrets in .env; missing file is fine.
	_ = godotenv.Load()

	fs := ff.NewFlagSet("tg2sheet")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		telegramToken  = fs.StringLong("telegram-token", "", "Telegram bot token (or set TG2SHEET_TELEGRAM_TOKEN)")
		sinkType       = fs.StringLong("sink", "sheets", "Row sink: 'sheets' or 'bolt'")
		credentials    = fs.StringLong("credentials", "credentials.json", "Google service account JSON file")
		spreadsheetID  = fs.StringLong("spreadsheet-id", "", "Target spreadsheet ID (sheets sink)")
		sheetName      = fs.StringLong("sheet", "Sheet1", "Sheet tab name (sheets sink)")
		fingerprintCol = fs.StringLong("fingerprint-column", "G", "Column letter holding row fingerprints")
		dbPath         = fs.StringLong("db", "tg2sheet.db", "Local sink database path (bolt sink)")
		archivePath    = fs.StringLong("archive", "./documents", "Directory for received PDF copies ('' disables)")
		captureFlag    = fs.StringLong("capture", "items", "Capture mode: 'items' (one row per line item) or 'text' (whole document)")
		markersFlag    = fs.StringLong("summary-markers", "", "Comma-separated summary-line markers (default: итого,total)")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username for the HTTP API (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password for the HTTP API (optional)")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("TG2SHEET"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	var mode invoice.CaptureMode
	switch *captureFlag {
	case "items":
		mode = invoice.CaptureItems
	case "text":
		mode = invoice.CaptureText
	default:
		slog.Error("Invalid capture mode", "mode", *captureFlag, "valid", "items or text")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The sink is constructed once here and injected everywhere; there is
	// no process-global spreadsheet client.
	var sink invoice.Sink
	switch *sinkType {
	case "sheets":
		if *spreadsheetID == "" {
			slog.Error("Spreadsheet ID is required for the sheets sink. Set --spreadsheet-id")
			os.Exit(1)
		}
		slog.Info("Initializing Google Sheets sink...", "spreadsheet", *spreadsheetID, "sheet", *sheetName)
		s, err := invoice.NewSheetSink(ctx, *credentials, *spreadsheetID, *sheetName, *fingerprintCol)
		if err != nil {
			slog.Error("Failed to initialize sheets sink", "error", err)
			os.Exit(1)
		}
		sink = s
	case "bolt":
		slog.Info("Initializing local sink...", "path", *dbPath)
		s, err := invoice.NewBoltSink(*dbPath)
		if err != nil {
			slog.Error("Failed to initialize local sink", "error", err)
			os.Exit(1)
		}
		defer s.Close()
		sink = s
	default:
		slog.Error("Invalid sink type", "type", *sinkType, "valid", "sheets or bolt")
		os.Exit(1)
	}

	var archive invoice.Archive
	if *archivePath != "" {
		a, err := invoice.NewLocalArchive(*archivePath)
		if err != nil {
			slog.Error("Failed to initialize archive", "error", err)
			os.Exit(1)
		}
		archive = a
	}

	markers := parsing.DefaultSummaryMarkers
	if *markersFlag != "" {
		markers = strings.Split(*markersFlag, ",")
	}

	service := invoice.NewServiceWithMarkers(parsing.FitzExtractor{}, sink, archive, mode, markers)

	server := invoice.NewServer(service, invoice.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	})
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()
	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	if *telegramToken == "" {
		slog.Warn("Telegram token not set, chat intake disabled")
	} else {
		handler, err := bot.New(*telegramToken, service)
		if err != nil {
			slog.Error("Failed to initialize Telegram bot", "error", err)
			os.Exit(1)
		}
		go handler.Run(ctx)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
