package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/propforma/underwrite/internal/prompt"
	"github.com/propforma/underwrite/internal/schema"
	"github.com/propforma/underwrite/pkg/form"
	"github.com/propforma/underwrite/pkg/formflow"
)

func main() {
	var (
		serverFlag = flag.String("server", "http://127.0.0.1:5001", "underwriting server base URL")
		demoFlag   = flag.Bool("demo", false, "fill the form with the demo deal instead of prompting")
		waitFlag   = flag.Bool("wait", true, "poll the job until it completes")
		pollEvery  = flag.Duration("poll", 2*time.Second, "status poll interval")
	)
	flag.Parse()

	ctx := context.Background()

	model, err := schema.Load(ctx)
	if err != nil {
		log.Fatalf("load form schema: %v", err)
	}

	client, err := formflow.NewClient(*serverFlag)
	if err != nil {
		log.Fatalf("configure client: %v", err)
	}

	controller := formflow.NewController(model,
		formflow.WithClient(client),
		formflow.WithNotifier(formflow.NotifierFunc(func(message string) {
			fmt.Fprintln(os.Stderr, message)
		})),
	)

	driver := prompt.NewSurveyDriver()

	if *demoFlag {
		controller.LoadDemo(form.DemoDeal())
		_ = driver.Info(ctx, "Demo deal loaded.")
	} else if err := prompt.Fill(ctx, driver, model, controller); err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			os.Exit(130)
		}
		log.Fatalf("prompt: %v", err)
	}

	if err := controller.Submit(ctx); err != nil {
		if errors.Is(err, formflow.ErrInvalid) {
			for _, name := range model.RequiredFields() {
				if controller.Marked(name) {
					fmt.Fprintf(os.Stderr, "missing required field: %s\n", name)
				}
			}
		}
		os.Exit(1)
	}

	target := controller.RedirectTarget()
	jobID := strings.TrimPrefix(target, "/processing/")
	fmt.Printf("Analysis started: %s%s\n", *serverFlag, target)

	if !*waitFlag {
		return
	}
	if err := pollStatus(ctx, *serverFlag, jobID, *pollEvery); err != nil {
		log.Fatalf("poll status: %v", err)
	}
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func pollStatus(ctx context.Context, base, jobID string, every time.Duration) error {
	url := fmt.Sprintf("%s/api/status/%s", strings.TrimRight(base, "/"), jobID)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	last := ""
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		var status statusResponse
		err = json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if err != nil {
			return err
		}

		if status.Status != last {
			fmt.Printf("status: %s\n", status.Status)
			last = status.Status
		}
		switch status.Status {
		case "complete":
			fmt.Printf("Results: %s/results/%s\n", strings.TrimRight(base, "/"), jobID)
			return nil
		case "error":
			return fmt.Errorf("analysis failed: %s", status.Message)
		case "not_found":
			return fmt.Errorf("job %s not found", jobID)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
