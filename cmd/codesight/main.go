// Command codesight runs one analysis from the terminal: point it at a
// project root, describe the problem, get the model's answer on stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"codesight/internal/llm"
	llmclient "codesight/internal/llmClient"
	"codesight/internal/modes"
	"codesight/internal/relevance"
)

// fileList collects repeated -file flags.
type fileList []string

func (f *fileList) String() string { return fmt.Sprint(*f) }

func (f *fileList) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	var files fileList
	root := flag.String("root", "", "path to the project root")
	mode := flag.String("mode", "explain", "analysis mode: chat, explain, debug, plan, edit, review")
	desc := flag.String("desc", "", "what to analyze or fix")
	errlog := flag.String("errlog", "", "file containing an error log or stack trace")
	dry := flag.Bool("dry", false, "print the selected files instead of querying the model")
	flag.Var(&files, "file", "file to include (repeatable)")
	flag.Parse()

	if *root == "" {
		log.Fatal("-root is required")
	}
	if *desc == "" {
		log.Fatal("-desc is required")
	}

	_ = godotenv.Load()

	m, err := modes.Parse(*mode)
	if err != nil {
		log.Fatal(err)
	}

	var errLog string
	if *errlog != "" {
		b, err := os.ReadFile(*errlog)
		if err != nil {
			log.Fatalf("read errlog: %v", err)
		}
		errLog = string(b)
	}

	sel := relevance.Selector{}
	selected, err := sel.Select(relevance.Problem{
		Description: *desc,
		ErrorLog:    errLog,
		FilePaths:   files,
		BasePath:    *root,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("selected %d file(s)", len(selected))

	if *dry {
		for _, f := range selected {
			fmt.Println(f.Path)
		}
		return
	}

	prompt, err := modes.BuildPrompt(modes.Request{
		Mode:        m,
		Description: *desc,
		ErrorLog:    errLog,
		Files:       selected,
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	client, err := llmclient.FromEnv(ctx)
	if err != nil {
		log.Fatal(err)
	}
	client = llm.Wrap(client, llm.Retry(3, 500*time.Millisecond))
	defer client.Close()

	log.Printf("querying %s", client.Name())
	answer, err := client.Query(ctx, prompt.User, prompt.System)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(answer)
}
