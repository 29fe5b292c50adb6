package config_test

import (
	"fmt"
	"log"

	"github.com/ajitpratap0/prism/pkg/config"
)

// ExampleDefaultJob demonstrates the starter job template.
func ExampleDefaultJob() {
	job := config.DefaultJob("score-totals")

	fmt.Printf("Name: %s\n", job.Name)
	fmt.Printf("Source: %s\n", job.Source.Paths[0])
	fmt.Printf("Output: %s\n", job.Output.Path)

	// Output:
	// Name: score-totals
	// Source: scores.csv
	// Output: totals.csv
}

// ExampleJob_Validate shows how to validate a job before running it.
func ExampleJob_Validate() {
	job := config.DefaultJob("nightly")

	// Compressed JSONL output, squeezed as small as possible
	job.Output.Path = "out/totals.jsonl.zst"
	job.Output.CompressionLevel = "best"

	if err := job.Validate(); err != nil {
		log.Fatalf("Invalid job: %v", err)
	}

	fmt.Println("Job is valid!")

	// Output:
	// Job is valid!
}

// ExampleLoadJob demonstrates loading a job from a YAML file.
func ExampleLoadJob() {
	// In practice you would load from a file:
	// job, err := config.LoadJob("job.yml")
	// if err != nil {
	//     log.Fatal(err)
	// }

	// For this example, we'll build one manually
	job := config.Job{
		Name:   "ad-hoc",
		Source: config.SourceConfig{Paths: []string{"people.csv"}},
		Steps: []config.StepConfig{
			{Op: config.OpMap, Column: "Name", Fn: "upper"},
			{Op: config.OpFilter, Column: "Age", Compare: config.CompareGte, Value: "18"},
		},
	}

	fmt.Printf("Name: %s\n", job.Name)
	fmt.Printf("Steps: %d\n", len(job.Steps))

	// Output:
	// Name: ad-hoc
	// Steps: 2
}
