package seqfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/avansant/cladecall/internal/schema"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const fastqContent = "@read1\nACGTACGT\n+\nIIIIIIII\n"
const fastaContent = ">contig1\nACGTACGTACGT\nACGT\n>contig2\nGGCC\n"

func TestSniff(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    Format
	}{
		{"fastq", fastqContent, FormatFastq},
		{"fasta", fastaContent, FormatFasta},
		{"leading blank lines", "\n\n" + fastaContent, FormatFasta},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Sniff(writeFile(t, "in.seq", c.content))
			if err != nil {
				t.Fatalf("Sniff: %v", err)
			}
			if got != c.want {
				t.Errorf("Sniff = %q, want %q", got, c.want)
			}
		})
	}
}

func TestSniffRejects(t *testing.T) {
	for name, content := range map[string]string{
		"garbage": "ACGT no record marker\n",
		"empty":   "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Sniff(writeFile(t, "in.seq", content))
			if !errors.Is(err, schema.ErrMalformedInput) {
				t.Errorf("Sniff = %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestGuess(t *testing.T) {
	fq1 := writeFile(t, "r1.fastq", fastqContent)
	fq2 := writeFile(t, "r2.fastq", fastqContent)
	fa := writeFile(t, "asm.fasta", fastaContent)

	got, err := Guess([]string{fq1, fq2})
	if err != nil || got != FormatFastq {
		t.Errorf("Guess(fastq pair) = %q, %v", got, err)
	}

	got, err = Guess([]string{fa})
	if err != nil || got != FormatFasta {
		t.Errorf("Guess(fasta) = %q, %v", got, err)
	}

	if _, err = Guess([]string{fq1, fa}); !errors.Is(err, schema.ErrMalformedInput) {
		t.Errorf("Guess(mixed) = %v, want ErrMalformedInput", err)
	}
	if _, err = Guess(nil); !errors.Is(err, schema.ErrMalformedInput) {
		t.Errorf("Guess(none) = %v, want ErrMalformedInput", err)
	}
}

func TestConfirm(t *testing.T) {
	fq := writeFile(t, "r1.fastq", fastqContent)
	fa := writeFile(t, "asm.fasta", fastaContent)

	if got := Confirm([]string{fq}, FormatFastq); len(got) != 0 {
		t.Errorf("Confirm(matching) = %v, want none", got)
	}
	got := Confirm([]string{fq, fa}, FormatFasta)
	if len(got) != 1 || got[0] != fq {
		t.Errorf("Confirm(mismatch) = %v, want [%s]", got, fq)
	}
}

func TestValidateExist(t *testing.T) {
	fa := writeFile(t, "asm.fasta", fastaContent)
	if err := ValidateExist([]string{fa}); err != nil {
		t.Errorf("ValidateExist = %v", err)
	}
	err := ValidateExist([]string{fa, filepath.Join(t.TempDir(), "missing.fasta")})
	if !errors.Is(err, schema.ErrMalformedInput) {
		t.Errorf("ValidateExist(missing) = %v, want ErrMalformedInput", err)
	}
}

func TestFastaTotalBases(t *testing.T) {
	// 12 + 4 + 4 bases across two contigs.
	fa1 := writeFile(t, "a.fasta", fastaContent)
	fa2 := writeFile(t, "b.fasta", ">c\nAAAA\n")

	total, err := FastaTotalBases([]string{fa1, fa2})
	if err != nil {
		t.Fatalf("FastaTotalBases: %v", err)
	}
	if total != 24 {
		t.Errorf("total = %v, want 24", total)
	}
}
