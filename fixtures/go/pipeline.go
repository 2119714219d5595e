package fixtures

import (
	"context"
	"fmt"
)

type Builder interface {
	Build(ctx context.Context) error
}

type Pipeline struct{}

func (p *Pipeline) Build(ctx context.Context) error {
	logStart()
	return collect(ctx)
}

func collect(ctx context.Context) error {
	fmt.Println("collecting")
	return nil
}

func logStart() {
	fmt.Println("start")
}
