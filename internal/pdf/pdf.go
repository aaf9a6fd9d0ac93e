// Package pdf renders family tree reports as single-page PDF documents.
// The writer emits the format by hand; the reports are plain text blocks,
// which keeps the output small and dependency-free.
package pdf

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/straintree/straintree-backend/internal/models"
)

// FamilyTreeDoc carries everything a report needs. Strains must contain
// every strain referenced by Crosses.
type FamilyTreeDoc struct {
	Tree        models.FamilyTree
	Crosses     []models.Cross
	Strains     []models.Strain
	Plan        string // basic or premium
	GeneratedAt time.Time
}

type line struct {
	text string
	size float64
	bold bool
}

// RenderFamilyTree writes the report for doc to w.
func RenderFamilyTree(w io.Writer, doc FamilyTreeDoc) error {
	return render(w, buildLines(doc))
}

func buildLines(doc FamilyTreeDoc) []line {
	var out []line
	add := func(text string, size float64, bold bool) {
		out = append(out, line{text: text, size: size, bold: bold})
	}

	add(doc.Tree.Name, 18, true)
	if doc.Tree.Description != "" {
		add(doc.Tree.Description, 10, false)
	}
	add("", 10, false)
	if doc.Tree.OwnerUsername != "" {
		add("Breeder: "+doc.Tree.OwnerUsername, 10, false)
	}
	add("Created: "+doc.Tree.CreatedAt.Format("2006-01-02"), 10, false)
	add("Last updated: "+doc.Tree.UpdatedAt.Format("2006-01-02"), 10, false)
	add(fmt.Sprintf("Crosses: %d", len(doc.Crosses)), 10, false)
	add(fmt.Sprintf("Generations: %d", maxGeneration(doc.Crosses)), 10, false)

	add("", 10, false)
	add("Breeding History", 14, true)
	for _, gen := range generations(doc.Crosses) {
		add(fmt.Sprintf("Generation F%d", gen), 12, true)
		for _, c := range doc.Crosses {
			if c.Generation != gen {
				continue
			}
			entry := fmt.Sprintf("%s x %s = %s", c.Parent1Name, c.Parent2Name, c.OffspringName)
			if c.CrossDate != nil {
				entry += " (" + c.CrossDate.Format("2006-01-02") + ")"
			}
			add(entry, 10, false)
			if c.Notes != "" {
				add("  "+c.Notes, 9, false)
			}
		}
	}

	add("", 10, false)
	add("Strains", 14, true)
	for _, s := range doc.Strains {
		entry := s.Name
		if s.StrainType != "" {
			entry += " (" + s.StrainType + ")"
		}
		if s.ThcContent != nil {
			entry += fmt.Sprintf(" THC %.1f%%", *s.ThcContent)
		}
		if s.CbdContent != nil {
			entry += fmt.Sprintf(" CBD %.1f%%", *s.CbdContent)
		}
		add(entry, 10, false)
	}

	if doc.Plan == "premium" {
		add("", 10, false)
		add("Breeding Statistics", 14, true)
		for _, stat := range premiumStats(doc) {
			add(stat, 10, false)
		}
	}

	add("", 10, false)
	add("Generated by StrainTree on "+doc.GeneratedAt.Format("2006-01-02 15:04"), 8, false)
	return out
}

func maxGeneration(crosses []models.Cross) int {
	max := 0
	for _, c := range crosses {
		if c.Generation > max {
			max = c.Generation
		}
	}
	return max
}

func generations(crosses []models.Cross) []int {
	seen := map[int]bool{}
	var gens []int
	for _, c := range crosses {
		if !seen[c.Generation] {
			seen[c.Generation] = true
			gens = append(gens, c.Generation)
		}
	}
	sort.Ints(gens)
	return gens
}

func premiumStats(doc FamilyTreeDoc) []string {
	var stats []string

	uses := map[string]int{}
	for _, c := range doc.Crosses {
		uses[c.Parent1Name]++
		uses[c.Parent2Name]++
	}
	best, bestCount := "", 0
	for name, n := range uses {
		if n > bestCount || (n == bestCount && name < best) {
			best, bestCount = name, n
		}
	}
	if best != "" {
		stats = append(stats, fmt.Sprintf("Most used parent: %s (%d crosses)", best, bestCount))
	}

	if len(doc.Crosses) > 0 {
		sum := 0
		for _, c := range doc.Crosses {
			sum += c.Generation
		}
		stats = append(stats, fmt.Sprintf("Average generation: %.1f", float64(sum)/float64(len(doc.Crosses))))

		first, last := doc.Crosses[0].CreatedAt, doc.Crosses[0].CreatedAt
		for _, c := range doc.Crosses {
			if c.CreatedAt.Before(first) {
				first = c.CreatedAt
			}
			if c.CreatedAt.After(last) {
				last = c.CreatedAt
			}
		}
		stats = append(stats, fmt.Sprintf("Breeding timespan: %d days", int(last.Sub(first).Hours()/24)))
	}
	return stats
}

// render writes a one-page A4 PDF. Lines flow top to bottom; anything past
// the bottom margin is dropped rather than paginated.
func render(w io.Writer, lines []line) error {
	var content strings.Builder
	y := 800.0
	for _, ln := range lines {
		if y < 40 {
			break
		}
		if ln.text != "" {
			font := "F1"
			if ln.bold {
				font = "F2"
			}
			fmt.Fprintf(&content, "BT /%s %g Tf 40 %g Td (%s) Tj ET\n", font, ln.size, y, escape(ln.text))
		}
		y -= ln.size + 5
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Contents 4 0 R " +
			"/Resources << /Font << /F1 5 0 R /F2 6 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold >>",
	}

	var buf strings.Builder
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	_, err := io.WriteString(w, buf.String())
	return err
}

// escape protects the characters PDF string literals reserve.
func escape(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)")
	return r.Replace(s)
}
