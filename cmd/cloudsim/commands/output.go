package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cloudsim/cloudsim/pkg/stores"
)

// printJSON writes any value as indented JSON to stdout.
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// printStack renders a single stack record.
func printStack(stack *stores.Stack) error {
	if jsonOutput {
		return printJSON(stack)
	}

	fmt.Printf("Stack:    %s\n", stack.Name)
	fmt.Printf("ID:       %s\n", stack.ID)
	fmt.Printf("Status:   %s\n", stack.Status)
	if stack.StatusReason != nil && *stack.StatusReason != "" {
		fmt.Printf("Reason:   %s\n", *stack.StatusReason)
	}
	fmt.Printf("Created:  %s\n", stack.CreatedAt.Format("2006-01-02 15:04:05"))

	if stack.Outputs != nil && *stack.Outputs != "" {
		var outputs map[string]string
		if err := json.Unmarshal([]byte(*stack.Outputs), &outputs); err == nil && len(outputs) > 0 {
			fmt.Println("Outputs:")
			for name, value := range outputs {
				fmt.Printf("  %s = %s\n", name, value)
			}
		}
	}
	return nil
}

// printResources renders stack resources as a table in creation order.
func printResources(resources []*stores.StackResource) error {
	if jsonOutput {
		return printJSON(resources)
	}

	if len(resources) == 0 {
		fmt.Println("No resources.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOGICAL ID\tKIND\tSTATUS\tPHYSICAL ID")
	for _, r := range resources {
		physical := "-"
		if r.PhysicalID != nil {
			physical = *r.PhysicalID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.LogicalID, r.Kind, r.Status, physical)
	}
	return w.Flush()
}
