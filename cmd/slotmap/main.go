// Command slotmap shows how a list of names lands in a table of a given
// capacity, so collisions can be caught before a table is sized in code.
//
// Usage:
//
//	slotmap -count 64 [-hash djb2|fnv1a|xxhash] [-json] [-strict] [file ...]
//
// Names are read one per line from the files, or from stdin when none are
// given. Blank lines are skipped.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sugawarayuuta/sonnet"
	"go.uber.org/zap"

	"github.com/theflywheel/hashtable"
)

func main() {
	var (
		count    = flag.Uint("count", 0, "Table element count")
		hashName = flag.String("hash", "djb2", "Hash algorithm (djb2, fnv1a, xxhash)")
		asJSON   = flag.Bool("json", false, "Print the report as JSON")
		strict   = flag.Bool("strict", false, "Exit with status 2 when any names collide")
		verbose  = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *count == 0 || *count > 1<<32-1 {
		fmt.Fprintln(os.Stderr, "Usage: slotmap -count <n> [-hash djb2|fnv1a|xxhash] [-json] [-strict] [file ...]")
		os.Exit(1)
	}

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer l.Sync()
		hashtable.SetLogger(l)
	}

	collided, err := run(os.Stdout, flag.Args(), uint32(*count), *hashName, *asJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *strict && collided {
		os.Exit(2)
	}
}

func run(w io.Writer, paths []string, count uint32, hashName string, asJSON bool) (bool, error) {
	algorithm, err := hashtable.ParseAlgorithm(hashName)
	if err != nil {
		return false, err
	}

	names, err := readNames(paths)
	if err != nil {
		return false, err
	}
	hashtable.Logger().Debug("names read", zap.Int("names", len(names)), zap.Strings("paths", paths))

	report, err := BuildReport(names, count, algorithm)
	if err != nil {
		return false, err
	}

	if asJSON {
		data, err := sonnet.Marshal(report)
		if err != nil {
			return false, fmt.Errorf("encode report: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return false, err
		}
	} else if err := printReport(w, report); err != nil {
		return false, err
	}
	return len(report.Collisions) > 0, nil
}

func readNames(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return scanNames(os.Stdin, nil)
	}
	var names []string
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open names: %w", err)
		}
		names, err = scanNames(f, names)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
	}
	return names, nil
}

func scanNames(r io.Reader, names []string) ([]string, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			names = append(names, name)
		}
	}
	return names, sc.Err()
}

func printReport(w io.Writer, r *Report) error {
	fmt.Fprintf(w, "algorithm: %s  slots: %d  names: %d  used: %d  load: %.2f\n\n",
		r.Algorithm, r.Count, r.Names, r.UsedSlots, r.LoadFactor)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tNAME\tOVERWRITES")
	for _, a := range r.Assignments {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", a.Slot, a.Name, a.Overwrites)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Collisions) == 0 {
		_, err := fmt.Fprintln(w, "\nno collisions")
		return err
	}
	fmt.Fprintf(w, "\n%d colliding slots:\n", len(r.Collisions))
	for _, c := range r.Collisions {
		fmt.Fprintf(w, "  %d: %s\n", c.Slot, strings.Join(c.Names, ", "))
	}
	return nil
}
