// Command tacdump runs the fixture scenarios (pkg/fixtures) through the
// batch driver (pkg/batch) and prints the resulting three-address code.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bytecodeflow/jvmtac/pkg/batch"
	"github.com/bytecodeflow/jvmtac/pkg/config"
	"github.com/bytecodeflow/jvmtac/pkg/descriptor"
	"github.com/bytecodeflow/jvmtac/pkg/domain/typeonly"
	"github.com/bytecodeflow/jvmtac/pkg/fixtures"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		runAll()
		return
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		fmt.Printf("tacdump version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	case "list":
		listScenarios()
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: no scenario name given")
			printUsage()
			os.Exit(1)
		}
		runOne(os.Args[2])
	case "all":
		runAll()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("tacdump - lift fixture bytecode to three-address code")
	fmt.Println("\nUsage:")
	fmt.Println("  tacdump              Lift and print every fixture scenario")
	fmt.Println("  tacdump list         List fixture scenario names")
	fmt.Println("  tacdump run <name>   Lift and print one named scenario")
	fmt.Println("  tacdump all          Lift and print every fixture scenario")
	fmt.Println("  tacdump version      Show version")
	fmt.Println("  tacdump help         Show this help")
}

func listScenarios() {
	for _, s := range fixtures.All() {
		fmt.Println(s.Name)
	}
}

func runOne(name string) {
	for _, s := range fixtures.All() {
		if s.Name == name {
			dump([]fixtures.Scenario{s})
			return
		}
	}
	fmt.Fprintf(os.Stderr, "Error: no such scenario %q\n", name)
	os.Exit(1)
}

func runAll() {
	dump(fixtures.All())
}

// dump runs every scenario through a fresh Driver and prints each
// successful outcome's statements, or the failure's classified error.
func dump(scenarios []fixtures.Scenario) {
	d, err := batch.NewDriver()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: building driver: %v\n", err)
		os.Exit(1)
	}

	jobs := make([]batch.MethodJob, 0, len(scenarios))
	for _, s := range scenarios {
		md, err := descriptor.ParseMethodDescriptor(s.Descriptor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: parsing descriptor for %s: %v\n", s.Name, err)
			os.Exit(1)
		}
		jobs = append(jobs, batch.MethodJob{
			ID:         s.Name,
			Code:       s.Code,
			Descriptor: md,
			IsStatic:   s.IsStatic,
			MaxLocals:  s.MaxLocals,
			ParamTypes: s.ParamTypes,
			Domain:     typeonly.New(),
		})
	}

	result, runErr := d.Run(context.Background(), config.Default(), jobs)
	for _, outcome := range result.Successes {
		fmt.Printf("=== %s ===\n", outcome.JobID)
		fmt.Printf("parameters: %d, statements: %d, identical-origin values: %d\n",
			len(outcome.TAC.Parameters.Entries), len(outcome.TAC.Statements), outcome.Stats.IdenticalOriginValues)
		for i, stmt := range outcome.TAC.Statements {
			fmt.Printf("  %3d: %T %+v\n", i, stmt, stmt)
		}
	}
	for _, failure := range result.Failures {
		fmt.Fprintf(os.Stderr, "=== %s: FAILED ===\n%v\n", failure.JobID, failure.Err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
