package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/yungbote/degreeplan-backend/internal/app"
	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
	"github.com/yungbote/degreeplan-backend/internal/degree/schema"
	"github.com/yungbote/degreeplan-backend/internal/services"
)

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: degreeplan <command> [flags]

commands:
  validate                      check every bundled plan schema
  plan -student ID -combination C -plan P [-plan P] [-course CODE ...]
                                lock plans, add courses and save
  recompute -student ID         rebuild a saved planner and save it again`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	application.Start()

	ctx := context.Background()
	switch os.Args[1] {
	case "validate":
		err = validate(application)
	case "plan":
		err = plan(ctx, application, os.Args[2:])
	case "recompute":
		err = recompute(ctx, application, os.Args[2:])
	default:
		usage()
		application.Close()
		os.Exit(2)
	}
	application.Close()
	if err != nil {
		fmt.Printf("%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func validate(a *app.App) error {
	bundle := a.Services.Catalog
	failed := 0
	for _, e := range bundle.Entries() {
		p, err := bundle.Plan(context.Background(), e.ID)
		if err == nil {
			err = schema.Validate(p)
		}
		if err != nil {
			failed++
			fmt.Printf("FAIL %s (%s): %v\n", e.ID, e.Key(), err)
			continue
		}
		fmt.Printf("ok   %s (%s)\n", e.ID, e.Key())
	}
	if failed > 0 {
		return fmt.Errorf("%d plan(s) failed validation", failed)
	}
	return nil
}

func plan(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	var plans, courses stringList
	studentID := fs.String("student", "", "student id")
	combination := fs.String("combination", string(reqid.Major), "plan combination")
	fs.Var(&plans, "plan", "plan id or title@year, one per slot (repeatable)")
	fs.Var(&courses, "course", "course code taken (repeatable)")
	_ = fs.Parse(args)

	planner := a.Services.Planner
	snap, err := planner.LockPlans(ctx, *studentID, reqid.Combination(*combination), plans)
	if err != nil {
		return err
	}
	if len(courses) > 0 {
		if snap, err = planner.AddCourses(ctx, *studentID, courses...); err != nil {
			return err
		}
	}
	if err := planner.Save(ctx, *studentID); err != nil {
		return err
	}
	printSnapshot(os.Stdout, snap)
	return nil
}

func recompute(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("recompute", flag.ExitOnError)
	studentID := fs.String("student", "", "student id")
	_ = fs.Parse(args)

	snap, err := a.Services.Planner.Recompute(ctx, *studentID)
	if err != nil {
		return err
	}
	if err := a.Services.Planner.Save(ctx, *studentID); err != nil {
		return err
	}
	printSnapshot(os.Stdout, snap)
	return nil
}

func printSnapshot(out io.Writer, snap *services.PlannerSnapshot) {
	fmt.Fprintf(out, "student %s  combination %s  plans %s\n\n", snap.StudentID, snap.Combination, strings.Join(snap.FieldLinks, ", "))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REQUIREMENT\tCOMPLETED\tREQUIRED\tCOURSES")
	for _, id := range snap.Ledger.Keys() {
		e, _ := snap.Ledger.Get(id)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, e.UnitsCompleted.StringFixed(2), e.UnitsRequired.StringFixed(2), strings.Join(e.Courses, " "))
	}
	_ = w.Flush()

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCOURSE\tUNITS\tASSIGNED TO")
	for i, c := range snap.Courses {
		code := c.Code
		if c.IsExcess {
			code += " (" + c.Title + ")"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, code, c.Units.StringFixed(2), c.Assignment.Join())
	}
	_ = w.Flush()
}
