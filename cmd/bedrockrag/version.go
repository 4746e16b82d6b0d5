package main

import (
	"context"
	"fmt"

	"github.com/a-h/bedrockrag"
)

type VersionCommand struct {
}

func (c VersionCommand) Run(ctx context.Context) (err error) {
	fmt.Println(bedrockrag.Version)
	return nil
}
