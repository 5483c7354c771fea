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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that renders an agent prompt from a text/template.
//
// Logic Flow:
//  1. It collects the configured context keys into a map. Missing keys render
//     as empty values.
//  2. It adds the example recommendation JSON under `example` so every prompt
//     can show the model the expected structure.
//  3. It executes the template and stores the prompt text.
//
// Templates are parsed with ParsePromptTemplate, which registers the `json`
// function used to embed structured values:
//
//	{{ json .viewer_information }}
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
)

// PromptFuncs are the functions available to every prompt template.
var PromptFuncs = template.FuncMap{
	"json": toIndentedJSON,
}

func toIndentedJSON(v any) (string, error) {
	out, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ParsePromptTemplate parses a prompt template with PromptFuncs registered.
//
// Inputs:
//   - name: The template name used in error messages.
//   - text: The template source from configuration.
//
// Outputs:
//   - *template.Template: The parsed template.
//   - error: A parse error.
func ParsePromptTemplate(name string, text string) (*template.Template, error) {
	return template.New(name).Funcs(PromptFuncs).Parse(text)
}

// PromptRenderer renders a prompt from named context values.
type PromptRenderer struct {
	cor.BaseCommand
	template *template.Template
	dataKeys []string
}

// NewPromptRenderer is the constructor for PromptRenderer.
//
// Inputs:
//   - name: A string name for this command instance.
//   - template: A template parsed with ParsePromptTemplate.
//   - dataKeys: The context keys exposed to the template under the same names.
//   - outputParam: The key receiving the prompt text.
//
// Outputs:
//   - *PromptRenderer: A pointer to the newly instantiated command.
func NewPromptRenderer(name string, template *template.Template, dataKeys []string, outputParam string) *PromptRenderer {
	return &PromptRenderer{
		BaseCommand: *cor.NewBaseCommandWithParams(name, "", outputParam),
		template:    template,
		dataKeys:    dataKeys,
	}
}

// IsExecutable only needs a Go context; the template decides what it uses.
func (p *PromptRenderer) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// GenerateParams creates the map of values injected into the template.
func (p *PromptRenderer) GenerateParams(context cor.Context) map[string]interface{} {
	params := make(map[string]interface{}, len(p.dataKeys)+1)
	for _, key := range p.dataKeys {
		params[key] = context.Get(key)
	}
	params[ParamExample] = model.GetExampleRecommendationJSON()
	return params
}

// Execute renders the template.
func (p *PromptRenderer) Execute(context cor.Context) {
	var buffer bytes.Buffer
	if err := p.template.Execute(&buffer, p.GenerateParams(context)); err != nil {
		p.Fail(context, fmt.Errorf("failed to execute prompt template %s: %w", p.template.Name(), err))
		return
	}
	context.Add(p.GetOutputParam(), buffer.String())
	p.Succeed(context)
}
