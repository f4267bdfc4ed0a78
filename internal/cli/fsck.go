package cli

import (
	"context"
	"fmt"
)

type Fsck struct {
	Repair bool `name:"repair" help:"Remove broken references found during the check"`
}

func (f *Fsck) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("fsck: %v", err)
		return err
	}
	defer r.Close()
	ctx := context.Background()

	var all []string

	objIssues, err := r.Fsck.CheckObjects(ctx)
	if err != nil {
		die("fsck: %v", err)
		return err
	}
	refIssues, err := r.Fsck.CheckRefs(ctx)
	if err != nil {
		die("fsck: %v", err)
		return err
	}
	report, err := r.Fsck.CheckConnectivity(ctx)
	if err != nil {
		die("fsck: %v", err)
		return err
	}

	for _, issue := range objIssues {
		all = append(all, issue.String())
	}
	for _, issue := range refIssues {
		all = append(all, issue.String())
	}
	for _, issue := range report.Issues {
		all = append(all, issue.String())
	}

	for _, line := range all {
		fmt.Println(line)
	}

	if f.Repair {
		removed, err := r.Fsck.Repair(ctx, refIssues)
		if err != nil {
			die("fsck: %v", err)
			return err
		}
		for _, name := range removed {
			fmt.Printf("removed broken ref %s\n", name)
		}
	}

	if len(all) == 0 {
		fmt.Println("ok")
	}
	return nil
}
