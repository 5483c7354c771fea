// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cor_test exercises the chain runtime with small in-memory commands.
package cor_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/cor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upperCommand reads a string from CtxIn and writes its upper-case form to CtxOut.
type upperCommand struct {
	cor.BaseCommand
}

func (c *upperCommand) Execute(context cor.Context) {
	in, _ := cor.Value[string](context, c.GetInputParam())
	context.Add(c.GetOutputParam(), strings.ToUpper(in))
	c.Succeed(context)
}

// suffixCommand appends a suffix to its input.
type suffixCommand struct {
	cor.BaseCommand
	suffix string
}

func (c *suffixCommand) Execute(context cor.Context) {
	in, _ := cor.Value[string](context, c.GetInputParam())
	context.Add(c.GetOutputParam(), in+c.suffix)
}

// failingCommand always records an error.
type failingCommand struct {
	cor.BaseCommand
}

func (c *failingCommand) Execute(context cor.Context) {
	c.Fail(context, errors.New("boom"))
}

// countingCommand counts executions and needs no input.
type countingCommand struct {
	cor.BaseCommand
	runs int
}

func (c *countingCommand) IsExecutable(context cor.Context) bool {
	return context.GetContext() != nil
}

func (c *countingCommand) Execute(context cor.Context) {
	c.runs++
}

func TestChainPipesOutputToInput(t *testing.T) {
	chain := cor.NewBaseChain("pipe")
	chain.AddCommand(&upperCommand{BaseCommand: *cor.NewBaseCommand("upper")})
	chain.AddCommand(&suffixCommand{BaseCommand: *cor.NewBaseCommand("suffix"), suffix: "!"})

	chCtx := cor.NewBaseContextWith(context.Background(), "hello")
	chain.Execute(chCtx)

	require.False(t, chCtx.HasErrors())
	out, ok := cor.Value[string](chCtx, cor.CtxIn)
	assert.True(t, ok)
	assert.Equal(t, "HELLO!", out)
	assert.Nil(t, chCtx.Get(cor.CtxOut))
}

func TestChainStopsOnFailure(t *testing.T) {
	counter := &countingCommand{BaseCommand: *cor.NewBaseCommand("counter")}
	chain := cor.NewBaseChain("stop")
	chain.AddCommand(&failingCommand{BaseCommand: *cor.NewBaseCommand("fail")})
	chain.AddCommand(counter)

	chCtx := cor.NewBaseContextWith(context.Background(), "x")
	chain.Execute(chCtx)

	assert.True(t, chCtx.HasErrors())
	assert.Equal(t, 0, counter.runs)
	assert.ErrorContains(t, chCtx.Err(), "fail: boom")
}

func TestChainContinueOnFailure(t *testing.T) {
	counter := &countingCommand{BaseCommand: *cor.NewBaseCommand("counter")}
	chain := cor.NewBaseChain("continue")
	chain.ContinueOnFailure(true)
	chain.AddCommand(&failingCommand{BaseCommand: *cor.NewBaseCommand("fail")})
	chain.AddCommand(counter)

	chCtx := cor.NewBaseContextWith(context.Background(), "x")
	chain.Execute(chCtx)

	assert.True(t, chCtx.HasErrors())
	assert.Equal(t, 1, counter.runs)
}

func TestChainHonorsCancellation(t *testing.T) {
	counter := &countingCommand{BaseCommand: *cor.NewBaseCommand("counter")}
	chain := cor.NewBaseChain("cancel")
	chain.AddCommand(counter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	chCtx := cor.NewBaseContextWith(ctx, nil)
	chain.Execute(chCtx)

	assert.Equal(t, 0, counter.runs)
	assert.ErrorIs(t, chCtx.Err(), context.Canceled)
	assert.Equal(t, ctx, chCtx.GetContext())
}

func TestCommandNotExecutableWithoutInput(t *testing.T) {
	cmd := cor.NewBaseCommandWithParams("named", "in", "out")
	chCtx := cor.NewBaseContextWith(context.Background(), nil)
	assert.False(t, cmd.IsExecutable(chCtx))

	chCtx.Add("in", 1)
	assert.True(t, cmd.IsExecutable(chCtx))
	assert.Equal(t, "out", cmd.GetOutputParam())
}
