// Command sharpjobs submits a SharpAPI task and optionally waits for its result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/sharpjobs/internal/config"
	"github.com/kiranshivaraju/sharpjobs/internal/jobs"
	"github.com/kiranshivaraju/sharpjobs/internal/logging"
	"github.com/kiranshivaraju/sharpjobs/internal/poller"
	"github.com/kiranshivaraju/sharpjobs/internal/sharpapi"
	"github.com/kiranshivaraju/sharpjobs/internal/tasks"
	"github.com/kiranshivaraju/sharpjobs/pkg/models"
)

const usage = `Usage:
  sharpjobs -task <type> [-content <text>] [-file <path>] [options]
  sharpjobs status <status_url>
  sharpjobs ping | quota | tasks
`

var errUsage = errors.New("invalid usage")

// serviceFactory builds the jobs service once configuration is needed.
type serviceFactory func() (*jobs.Service, error)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, newService); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newService() (*jobs.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup(os.Stderr, cfg.Server.LogLevel)

	client, err := sharpapi.NewHTTPClient(cfg.SharpAPI)
	if err != nil {
		return nil, err
	}
	return jobs.NewService(client,
		jobs.WithPolicy(poller.PolicyFromConfig(cfg.Polling)),
		jobs.WithLogger(logger),
	), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, factory serviceFactory) error {
	if len(args) > 0 {
		switch args[0] {
		case "tasks":
			return printJSON(stdout, tasks.Specs())
		case "ping":
			svc, err := factory()
			if err != nil {
				return err
			}
			ping, err := svc.Ping(ctx)
			if err != nil {
				return err
			}
			return printJSON(stdout, ping)
		case "quota":
			svc, err := factory()
			if err != nil {
				return err
			}
			info, err := svc.Quota(ctx)
			if err != nil {
				return err
			}
			return printJSON(stdout, info)
		case "status":
			if len(args) != 2 || args[1] == "" {
				fmt.Fprint(stderr, usage)
				return errUsage
			}
			svc, err := factory()
			if err != nil {
				return err
			}
			rec, err := svc.Await(ctx, models.JobHandle(args[1]))
			if err != nil {
				return err
			}
			return printJSON(stdout, rec)
		}
	}
	return submit(ctx, args, stdout, stderr, factory)
}

type submitFlags struct {
	task        string
	content     string
	file        string
	params      string
	language    string
	maxQuantity int
	maxLength   int
	voiceTone   string
	context     string
	city        string
	country     string
	wait        bool
}

func submit(ctx context.Context, args []string, stdout, stderr io.Writer, factory serviceFactory) error {
	var f submitFlags
	fs := flag.NewFlagSet("sharpjobs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.task, "task", "", "Task type, see `sharpjobs tasks`")
	fs.StringVar(&f.content, "content", "", "Text to process")
	fs.StringVar(&f.file, "file", "", "File to upload (hr_parse_resume)")
	fs.StringVar(&f.params, "params", "", "Task fields as a JSON object (hr_job_description)")
	fs.StringVar(&f.language, "language", "", "Output language")
	fs.IntVar(&f.maxQuantity, "max-quantity", 0, "Maximum number of returned items")
	fs.IntVar(&f.maxLength, "max-length", 0, "Maximum length of generated text")
	fs.StringVar(&f.voiceTone, "voice-tone", "", "Voice tone, e.g. Formal")
	fs.StringVar(&f.context, "context", "", "Extra guidance for the model")
	fs.StringVar(&f.city, "city", "", "City (travel tasks)")
	fs.StringVar(&f.country, "country", "", "Country (travel tasks)")
	fs.BoolVar(&f.wait, "wait", false, "Wait for the job to finish and print the record")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fmt.Fprintln(stderr, "\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if f.task == "" {
		fs.Usage()
		return errUsage
	}

	req, closer, err := buildRequest(f)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	if err := req.Validate(); err != nil {
		return err
	}

	svc, err := factory()
	if err != nil {
		return err
	}

	handle, err := svc.SubmitJob(ctx, req)
	if err != nil {
		return err
	}
	if !f.wait {
		return printJSON(stdout, map[string]string{"status_url": handle.String()})
	}

	rec, err := svc.Await(ctx, handle)
	if err != nil {
		return err
	}
	return printJSON(stdout, rec)
}

func buildRequest(f submitFlags) (tasks.Request, io.Closer, error) {
	t, err := tasks.ParseType(f.task)
	if err != nil {
		return tasks.Request{}, nil, err
	}

	tone := models.VoiceTone(f.voiceTone)
	if tone != "" && !tone.Valid() {
		return tasks.Request{}, nil, fmt.Errorf("%w: unknown voice tone %q", tasks.ErrInvalidParams, f.voiceTone)
	}
	opts := []tasks.Option{
		tasks.WithLanguage(f.language),
		tasks.WithMaxQuantity(f.maxQuantity),
		tasks.WithMaxLength(f.maxLength),
		tasks.WithVoiceTone(tone),
		tasks.WithContext(f.context),
		tasks.WithCity(f.city),
		tasks.WithCountry(f.country),
	}

	switch t {
	case tasks.HRParseResume:
		if f.file == "" {
			return tasks.Request{}, nil, fmt.Errorf("%w: %s requires -file", tasks.ErrFileMismatch, t)
		}
		file, closer, err := sharpapi.OpenFile(f.file)
		if err != nil {
			return tasks.Request{}, nil, err
		}
		return tasks.ParseResume(file, opts...), closer, nil

	case tasks.HRJobDescription:
		var p models.JobDescriptionParameters
		if f.params != "" {
			if err := json.Unmarshal([]byte(f.params), &p); err != nil {
				return tasks.Request{}, nil, fmt.Errorf("%w: -params: %v", tasks.ErrInvalidParams, err)
			}
		}
		if p.Name == "" {
			p.Name = f.content
		}
		req, err := tasks.JobDescription(p)
		return req, nil, err
	}

	if f.params != "" {
		params := map[string]any{}
		if err := json.Unmarshal([]byte(f.params), &params); err != nil {
			return tasks.Request{}, nil, fmt.Errorf("%w: -params: %v", tasks.ErrInvalidParams, err)
		}
		if f.content != "" {
			params[tasks.FieldContent] = f.content
		}
		for _, opt := range opts {
			opt(params)
		}
		return tasks.NewWithParams(t, params), nil, nil
	}
	return tasks.New(t, f.content, opts...), nil, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
