package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"

	"github.com/goliatone/go-sendmoney/pkg/engine"
	"github.com/goliatone/go-sendmoney/pkg/schema"
	"github.com/goliatone/go-sendmoney/pkg/session"
	"github.com/goliatone/go-sendmoney/pkg/validation"
)

// sendMoney walks the dynamic form: pick a service and provider, prompt for
// every required field per its type, and submit.
func sendMoney(ctx context.Context, eng *engine.Engine, language string) error {
	current := eng.Schema()
	if current.Empty() {
		return errors.New("no services available; check the form document")
	}

	sel := eng.NewSelection(language)

	serviceNames := make([]string, 0, len(current.Services))
	labels := make(map[string]string, len(current.Services))
	for _, svc := range current.Services {
		label := svc.Label.Resolve(language)
		if label == "" {
			label = svc.Name
		}
		serviceNames = append(serviceNames, label)
		labels[label] = svc.Name
	}

	var serviceLabel string
	if err := survey.AskOne(&survey.Select{Message: current.Title.Resolve(language), Options: serviceNames}, &serviceLabel); err != nil {
		return err
	}
	if err := sel.SelectService(labels[serviceLabel]); err != nil {
		return err
	}

	svc, _ := sel.Service()
	if len(svc.Providers) > 1 {
		providerNames := make([]string, 0, len(svc.Providers))
		ids := make(map[string]string, len(svc.Providers))
		for _, prov := range svc.Providers {
			providerNames = append(providerNames, prov.Name)
			ids[prov.Name] = prov.ID
		}
		var providerName string
		if err := survey.AskOne(&survey.Select{Message: "Provider:", Options: providerNames}, &providerName); err != nil {
			return err
		}
		if err := sel.SelectProvider(ids[providerName]); err != nil {
			return err
		}
	}

	prov, ok := sel.Provider()
	if !ok {
		return errors.New("selected service has no providers")
	}

	for _, field := range prov.RequiredFields {
		if err := promptField(sel, field, language); err != nil {
			return err
		}
	}

	result, err := eng.SubmitSelection(ctx, sel)
	if err != nil {
		return err
	}
	if !result.Accepted {
		fmt.Println("Submission rejected:")
		for _, msg := range result.Errors {
			fmt.Printf("  - %s\n", msg)
		}
		return nil
	}

	fmt.Printf("Transfer #%d recorded: %s via %s, amount %.2f\n",
		result.Record.ID, result.Record.ServiceLabel, result.Record.ProviderName, result.Record.Amount)
	return nil
}

func promptField(sel *session.Selection, field schema.Field, language string) error {
	label := field.Label.Resolve(language)

	if field.Type == schema.FieldTypeOption {
		options := make([]string, 0, len(field.Options))
		names := make(map[string]string, len(field.Options))
		defaultIndex := 0
		seeded, _ := sel.Value(field.Name)
		for i, opt := range field.Options {
			options = append(options, opt.Label)
			names[opt.Label] = opt.Name
			if opt.Name == seeded {
				defaultIndex = i
			}
		}
		if len(options) == 0 {
			return nil
		}

		var choice string
		prompt := &survey.Select{Message: label + ":", Options: options, Default: options[defaultIndex]}
		if err := survey.AskOne(prompt, &choice); err != nil {
			return err
		}
		return sel.SetValue(field.Name, names[choice])
	}

	validator := func(answer interface{}) error {
		input, _ := answer.(string)
		if res := validation.Validate(field, field.Truncate(input), language); !res.OK {
			return errors.New(res.Message)
		}
		return nil
	}

	var input string
	prompt := &survey.Input{
		Message: label + ":",
		Help:    field.Placeholder.Resolve(language),
	}
	if err := survey.AskOne(prompt, &input, survey.WithValidator(validator)); err != nil {
		return err
	}
	return sel.SetValue(field.Name, input)
}
