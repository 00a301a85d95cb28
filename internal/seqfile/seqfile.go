// Package seqfile resolves the input sequence format at the CLI boundary.
// The classification core never branches on format; the only things that
// differ between reads and assemblies are the mash sketch mode and the
// genome-size source, both decided here once.
package seqfile

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/avansant/cladecall/internal/schema"
)

// Format tags the resolved input type.
type Format string

const (
	FormatFastq Format = "fastq"
	FormatFasta Format = "fasta"
)

// ValidateExist checks that every input file exists.
func ValidateExist(paths []string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("seqfile: required input file %s does not exist: %w", p, schema.ErrMalformedInput)
		}
	}
	return nil
}

// Sniff inspects the first record marker of a file. Fastq records open with
// '@', fasta records with '>'.
func Sniff(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("seqfile: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch line[0] {
		case '@':
			return FormatFastq, nil
		case '>':
			return FormatFasta, nil
		default:
			return "", fmt.Errorf("seqfile: %s is not a fastq or fasta file: %w", path, schema.ErrMalformedInput)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("seqfile: read %s: %w", path, err)
	}
	return "", fmt.Errorf("seqfile: %s is empty: %w", path, schema.ErrMalformedInput)
}

// Guess resolves one format for a set of input files. Mixing fastq and fasta
// inputs in one sample is rejected.
func Guess(paths []string) (Format, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("seqfile: no input files: %w", schema.ErrMalformedInput)
	}
	counts := map[Format]int{}
	for _, p := range paths {
		f, err := Sniff(p)
		if err != nil {
			return "", err
		}
		counts[f]++
	}
	if counts[FormatFastq] > 0 && counts[FormatFasta] > 0 {
		return "", fmt.Errorf("seqfile: input files mix fastq and fasta: %w", schema.ErrMalformedInput)
	}
	if counts[FormatFastq] > 0 {
		return FormatFastq, nil
	}
	return FormatFasta, nil
}

// Confirm reports the files that do not sniff as the format the user forced
// with --fastq or --fasta. The mismatches are warnings, not errors: the user
// override wins.
func Confirm(paths []string, format Format) []string {
	var mismatched []string
	for _, p := range paths {
		f, err := Sniff(p)
		if err != nil || f != format {
			mismatched = append(mismatched, p)
		}
	}
	return mismatched
}

// FastaTotalBases sums the sequence lengths across fasta files. For
// assemblies this is the genome-size signal; reads get theirs from the mash
// k-mer coverage estimate instead.
func FastaTotalBases(paths []string) (float64, error) {
	var total float64
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return 0, fmt.Errorf("seqfile: open %s: %w", p, err)
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, ">") {
				continue
			}
			total += float64(len(line))
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return 0, fmt.Errorf("seqfile: read %s: %w", p, err)
		}
	}
	return total, nil
}
