package main

import (
	"fmt"
	"os"
	"strings"
)

const maxArity = 5

func generateDerive(n int) string {
	var sb strings.Builder

	typeParams := []string{"T any"}
	for i := 1; i <= n; i++ {
		typeParams = append(typeParams, fmt.Sprintf("D%d any", i))
	}

	depParams := []string{}
	for i := 1; i <= n; i++ {
		depParams = append(depParams, fmt.Sprintf("d%d Signal[D%d]", i, i))
	}

	fnParams := []string{}
	for i := 1; i <= n; i++ {
		fnParams = append(fnParams, fmt.Sprintf("D%d", i))
	}

	deps := []string{}
	for i := 1; i <= n; i++ {
		deps = append(deps, fmt.Sprintf("d%d", i))
	}

	reads := []string{}
	for i := 1; i <= n; i++ {
		reads = append(reads, fmt.Sprintf("d%d.Now()", i))
	}

	sb.WriteString(fmt.Sprintf("// Derive%d returns a signal recomputing fn whenever any of its %d dependencies changes\n", n, n))
	sb.WriteString(fmt.Sprintf("func Derive%d[%s](\n", n, strings.Join(typeParams, ", ")))
	for _, dep := range depParams {
		sb.WriteString(fmt.Sprintf("\t%s,\n", dep))
	}
	sb.WriteString(fmt.Sprintf("\tfn func(%s) T,\n", strings.Join(fnParams, ", ")))
	sb.WriteString("\topts ...SignalOption,\n")
	sb.WriteString(") Signal[T] {\n")
	sb.WriteString("\treturn derive(d1.Scope(), func() T {\n")
	sb.WriteString(fmt.Sprintf("\t\treturn fn(%s)\n", strings.Join(reads, ", ")))
	sb.WriteString(fmt.Sprintf("\t}, []AnySignal{%s}, opts)\n", strings.Join(deps, ", ")))
	sb.WriteString("}\n")

	return sb.String()
}

func main() {
	var output strings.Builder

	for i := 1; i <= maxArity; i++ {
		if i > 1 {
			output.WriteString("\n")
		}
		output.WriteString(generateDerive(i))
	}

	fmt.Print(output.String())

	if len(os.Args) > 1 && os.Args[1] == "-w" {
		file, err := os.OpenFile("derive_generated.go", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			panic(err)
		}
		defer file.Close()

		file.WriteString("package pumped\n\n")
		file.WriteString("//go:generate go run ./codegen -w\n\n")
		file.WriteString(output.String())
		fmt.Println("Generated derive_generated.go")
	}
}
