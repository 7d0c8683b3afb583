package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"github.com/goliatone/go-sendmoney/pkg/engine"
	"github.com/goliatone/go-sendmoney/pkg/store"
)

const allServices = "All services"

// browseHistory renders the persisted transfers with the live filter/search
// contract: pick a service label (fed by the distinct-services projection),
// type an optional search term, then optionally delete entries by id.
func browseHistory(ctx context.Context, eng *engine.Engine) error {
	history, err := eng.History()
	if err != nil {
		return err
	}

	var services []string
	servicesSub, err := history.ObserveDistinctServices(ctx, func(labels []string) { services = labels })
	if err != nil {
		return err
	}
	defer servicesSub.Close()

	var filterChoice string
	prompt := &survey.Select{
		Message: "Filter by service:",
		Options: append([]string{allServices}, services...),
		Default: allServices,
	}
	if err := survey.AskOne(prompt, &filterChoice); err != nil {
		return err
	}

	var query string
	if err := survey.AskOne(&survey.Input{Message: "Search (provider or account, empty for all):"}, &query); err != nil {
		return err
	}

	var serviceFilter *string
	if filterChoice != allServices {
		serviceFilter = &filterChoice
	}

	var rows []store.TransferRecord
	rowsSub, err := history.ObserveFiltered(ctx, serviceFilter, query, func(records []store.TransferRecord) { rows = records })
	if err != nil {
		return err
	}
	defer rowsSub.Close()

	for {
		if len(rows) == 0 {
			fmt.Println("No transfers match.")
			return nil
		}

		printTransfers(rows)

		var action string
		if err := survey.AskOne(&survey.Select{Message: "History:", Options: []string{"Back", "Delete a transfer"}}, &action); err != nil {
			return err
		}
		if action == "Back" {
			return nil
		}

		var raw string
		if err := survey.AskOne(&survey.Input{Message: "Transfer id to delete:"}, &raw); err != nil {
			return err
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fmt.Printf("Not a valid id: %s\n", raw)
			continue
		}
		// The live subscription refreshes rows as part of the delete.
		if err := eng.DeleteTransfer(ctx, id); err != nil {
			return err
		}
	}
}

func printTransfers(rows []store.TransferRecord) {
	fmt.Printf("%-5s %-20s %-20s %10s %-16s %s\n", "ID", "SERVICE", "PROVIDER", "AMOUNT", "ACCOUNT", "DATE")
	for _, row := range rows {
		account := ""
		if row.AccountOrMSISDN != nil {
			account = *row.AccountOrMSISDN
		}
		created := time.UnixMilli(row.CreatedAt).Format("2006-01-02 15:04")
		fmt.Printf("%-5d %-20s %-20s %10.2f %-16s %s\n",
			row.ID, row.ServiceLabel, row.ProviderName, row.Amount, account, created)
	}
}
