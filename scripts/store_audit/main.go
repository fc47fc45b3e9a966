package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/noah-isme/planucab-api/internal/models"
	"github.com/noah-isme/planucab-api/internal/repository"
	"github.com/noah-isme/planucab-api/internal/service"
	"github.com/noah-isme/planucab-api/pkg/storage"
)

var errReadOnly = errors.New("store audit never writes")

// readOnlyFiles serves the block files without ever touching the data directory.
// A missing block file reads as an empty store.
type readOnlyFiles struct {
	files *storage.LocalStorage
}

func (r readOnlyFiles) Read(filename string) ([]byte, error) {
	data, err := r.files.Read(filename)
	if errors.Is(err, fs.ErrNotExist) && strings.HasSuffix(filename, ".json") {
		return []byte("{}"), nil
	}
	return data, err
}

func (readOnlyFiles) WriteAtomic(string, []byte) error { return errReadOnly }

func (readOnlyFiles) Rename(string, string) error { return errReadOnly }

type finding struct {
	Owner    int64
	Check    string
	Ref      models.BlockRef
	Detail   string
	Critical bool
}

type auditedBlock struct {
	ref    models.BlockRef
	window models.TimeRange
	err    error
}

func main() {
	var (
		dir      string
		decimals int
	)

	flag.StringVar(&dir, "dir", "./data", "Directory holding events.json, horarios.json and evaluaciones.json")
	flag.IntVar(&decimals, "decimals", 2, "Rounding precision for subject weight sums (negative disables rounding)")
	flag.Parse()

	files, err := storage.NewLocalStorage(dir)
	if err != nil {
		log.Fatalf("failed to open data dir: %v", err)
	}

	findings, err := audit(context.Background(), readOnlyFiles{files: files}, decimals)
	if err != nil {
		log.Fatalf("audit failed: %v", err)
	}

	printReport(findings)

	critical := 0
	for _, f := range findings {
		if f.Critical {
			critical++
		}
	}
	fmt.Printf("Critical findings: %d, Warnings: %d\n", critical, len(findings)-critical)
	if critical > 0 {
		os.Exit(1)
	}
}

// audit replays the write-time rules over the stored blocks: every window must be valid,
// no two blocks of an owner may overlap and no subject may carry more than 100% weight.
func audit(ctx context.Context, files repository.FileStore, decimals int) ([]finding, error) {
	opts := func(kind models.BlockKind, filename string) repository.StoreOptions {
		return repository.StoreOptions{Kind: kind, Files: files, Filename: filename}
	}
	events, err := repository.OpenBlockStore[models.Event](opts(models.KindEvent, "events.json"))
	if err != nil {
		return nil, err
	}
	horarios, err := repository.OpenBlockStore[models.Horario](opts(models.KindHorario, "horarios.json"))
	if err != nil {
		return nil, err
	}
	evaluaciones, err := repository.OpenBlockStore[models.Evaluacion](opts(models.KindEvaluacion, "evaluaciones.json"))
	if err != nil {
		return nil, err
	}

	detector := service.NewConflictDetector(events, horarios, evaluaciones, nil, nil)
	weights := service.NewWeightAllocator(evaluaciones, decimals, nil, nil)

	var findings []finding
	for _, owner := range ownersOf(events.Owners(), horarios.Owners(), evaluaciones.Owners()) {
		blocks, err := ownerBlocks(ctx, owner, events, horarios, evaluaciones)
		if err != nil {
			return nil, err
		}

		reported := make(map[[2]models.BlockRef]bool)
		for _, b := range blocks {
			if b.err != nil {
				findings = append(findings, finding{Owner: owner, Check: "WINDOW", Ref: b.ref, Detail: b.err.Error(), Critical: true})
				continue
			}
			ref := b.ref
			err := detector.CheckNoConflict(ctx, owner, b.window, &ref)
			var conflict *models.ScheduleConflictError
			if !errors.As(err, &conflict) {
				if err != nil {
					return nil, err
				}
				continue
			}
			pair := pairKey(b.ref, models.BlockRef{Kind: conflict.Kind, ID: conflict.ID})
			if reported[pair] {
				continue
			}
			reported[pair] = true
			findings = append(findings, finding{
				Owner:    owner,
				Check:    "OVERLAP",
				Ref:      b.ref,
				Detail:   fmt.Sprintf("%s %s", b.window, conflict.Message),
				Critical: true,
			})
		}

		totals, err := weights.Allocated(ctx, owner)
		if err != nil {
			return nil, err
		}
		subjects := make([]string, 0, len(totals))
		for subject := range totals {
			subjects = append(subjects, subject)
		}
		sort.Strings(subjects)
		for _, subject := range subjects {
			total := totals[subject]
			switch {
			case total > service.MaxSubjectWeight:
				findings = append(findings, finding{Owner: owner, Check: "WEIGHT", Detail: fmt.Sprintf("%q allocates %.2f%%", subject, total), Critical: true})
			case total < service.MaxSubjectWeight:
				findings = append(findings, finding{Owner: owner, Check: "WEIGHT", Detail: fmt.Sprintf("%q allocates %.2f%%, %.2f%% unassigned", subject, total, service.MaxSubjectWeight-total)})
			}
		}
	}
	return findings, nil
}

func ownerBlocks(ctx context.Context, owner int64, events *repository.EventStore, horarios *repository.HorarioStore, evaluaciones *repository.EvaluacionStore) ([]auditedBlock, error) {
	var blocks []auditedBlock

	evs, err := events.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, e := range evs {
		window, err := e.TimeRange()
		blocks = append(blocks, auditedBlock{ref: models.BlockRef{Kind: models.KindEvent, ID: e.ID}, window: window, err: err})
	}

	hs, err := horarios.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, h := range hs {
		window, err := h.TimeRange()
		blocks = append(blocks, auditedBlock{ref: models.BlockRef{Kind: models.KindHorario, ID: h.ID}, window: window, err: err})
	}

	evals, err := evaluaciones.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, e := range evals {
		window, err := e.TimeRange()
		blocks = append(blocks, auditedBlock{ref: models.BlockRef{Kind: models.KindEvaluacion, ID: e.ID}, window: window, err: err})
	}
	return blocks, nil
}

func ownersOf(lists ...[]int64) []int64 {
	seen := make(map[int64]struct{})
	var owners []int64
	for _, list := range lists {
		for _, owner := range list {
			if _, ok := seen[owner]; ok {
				continue
			}
			seen[owner] = struct{}{}
			owners = append(owners, owner)
		}
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	return owners
}

func pairKey(a, b models.BlockRef) [2]models.BlockRef {
	if b.Kind < a.Kind || (b.Kind == a.Kind && b.ID < a.ID) {
		a, b = b, a
	}
	return [2]models.BlockRef{a, b}
}

func printReport(findings []finding) {
	fmt.Println("Block Store Audit Report")
	fmt.Println("========================")
	if len(findings) == 0 {
		fmt.Println("No findings.")
		return
	}
	for _, f := range findings {
		level := "WARN"
		if f.Critical {
			level = "FAIL"
		}
		target := fmt.Sprintf("owner %d", f.Owner)
		if f.Ref.ID != 0 {
			target = fmt.Sprintf("%s %s #%d", target, f.Ref.Kind, f.Ref.ID)
		}
		fmt.Printf("[%s] %s %s\n", level, f.Check, target)
		fmt.Printf("  %s\n", f.Detail)
	}
}
