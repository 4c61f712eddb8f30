package main

import (
	"errors"
	"fmt"

	"github.com/kevinxiao27/failfast-seq/journal"
	"github.com/kevinxiao27/failfast-seq/removal"
	"github.com/kevinxiao27/failfast-seq/seq"
	"github.com/sanity-io/litter"
)

func letters() *seq.Sequence[string] {
	return seq.New("A", "B", "C", "D", "E")
}

func printAll(s *seq.Sequence[string]) {
	_ = s.ForEach(func(v string) error {
		fmt.Println(v)
		return nil
	})
}

func main() {
	litter.Config.HidePrivateFields = false

	lista := letters()
	log := journal.Record(lista)
	printAll(lista)

	bound := lista.Version()
	err := lista.ForEach(func(v string) error {
		if v == "D" {
			lista.RemoveValue(v) // not through the cursor
		}
		return nil
	})
	if errors.Is(err, seq.ErrConcurrentMutation) {
		fmt.Printf("Error: %v\n", err)
		fmt.Println("Missed by the cursor:")
		litter.Dump(log.Since(bound))
	}

	fmt.Println()
	printAll(lista)

	fmt.Println()
	isD := removal.Equals("D")
	for _, st := range removal.Strategies {
		src := letters()
		result, err := removal.Apply(st, src, isD)
		if err != nil {
			fmt.Printf("%-8s failed: %v\n", st, err)
			continue
		}
		fmt.Printf("%-8s %v (source %v, version %d)\n", st, result, src, src.Version())
	}
}
