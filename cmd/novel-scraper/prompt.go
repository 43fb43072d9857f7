package main

import (
	"github.com/manifoldco/promptui"

	"github.com/Sriram-PR/novel-scraper/pkg/parse"
)

// promptEntryURL asks for the novel or series URL on the terminal.
// Replaced in tests.
var promptEntryURL = func() (string, error) {
	prompt := promptui.Prompt{
		Label: "Pixiv novel or series URL",
		Validate: func(input string) error {
			_, err := parse.ValidateEntryURL(input)
			return err
		},
	}
	return prompt.Run()
}
