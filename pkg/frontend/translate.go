// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package frontend

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/psykal-project/psykal/pkg/source"
	"github.com/psykal-project/psykal/pkg/util"
)

// ParseProgram parses a given source file into a Program, reporting all
// syntax errors encountered rather than stopping at the first.  A non-empty
// error slice means the returned program must not be used.
func ParseProgram(file *source.File) (*Program, []error) {
	var (
		program Program
		errs    []error
	)
	//
	terms, err := ParseAll(file)
	if err != nil {
		return nil, []error{err}
	}
	//
	t := translator{file}
	//
	for _, term := range terms {
		list, ok := term.(*List)
		if !ok || list.Len() == 0 {
			errs = append(errs, t.errorOn(term, "expected declaration"))
			continue
		}
		//
		switch {
		case list.MatchSymbols(1, "kernel"):
			decl, kerrs := t.kernelDecl(list)
			if len(kerrs) > 0 {
				errs = append(errs, kerrs...)
			} else {
				program.Kernels = append(program.Kernels, decl)
			}
		case list.MatchSymbols(1, "var"):
			decl, verr := t.varDecl(list)
			if verr != nil {
				errs = append(errs, verr)
			} else {
				program.Variables = append(program.Variables, decl)
			}
		case list.MatchSymbols(1, "invoke"):
			inv, ierrs := t.invoke(list)
			if len(ierrs) > 0 {
				errs = append(errs, ierrs...)
			} else {
				program.Invokes = append(program.Invokes, inv)
			}
		default:
			errs = append(errs, t.errorOn(list.Elements[0], "unknown declaration"))
		}
	}
	//
	return &program, errs
}

// Translator maps generic S-expressions into the program shapes, reporting
// syntax errors against the originating spans.
type translator struct {
	srcfile *source.File
}

// Translate a kernel declaration of the form:
//
//	(kernel name (arg role space access [(stencil shape extent)]) ...
//	             [(offset convention)] [(routines name ...)])
func (p *translator) kernelDecl(list *List) (KernelDecl, []error) {
	var (
		decl KernelDecl
		errs []error
	)
	//
	if list.Len() < 2 || !list.Elements[1].IsSymbol() {
		return decl, []error{p.errorOn(list, "malformed kernel declaration")}
	}
	//
	decl.Name = list.Elements[1].(*Symbol).Value
	decl.Location = p.srcfile.Location(list.Span())
	//
	for _, clause := range list.Elements[2:] {
		sub, ok := clause.(*List)
		//
		switch {
		case !ok:
			errs = append(errs, p.errorOn(clause, "expected kernel clause"))
		case sub.MatchSymbols(1, "arg"):
			arg, aerr := p.argDecl(sub)
			if aerr != nil {
				errs = append(errs, aerr)
			} else {
				decl.Args = append(decl.Args, arg)
			}
		case sub.MatchSymbols(1, "offset"):
			if sub.Len() != 2 || !sub.Elements[1].IsSymbol() {
				errs = append(errs, p.errorOn(sub, "malformed offset clause"))
			} else {
				decl.Offset = sub.Elements[1].(*Symbol).Value
			}
		case sub.MatchSymbols(1, "routines"):
			for _, r := range sub.Elements[1:] {
				if !r.IsSymbol() {
					errs = append(errs, p.errorOn(r, "expected routine name"))
					continue
				}
				//
				decl.Routines = append(decl.Routines, r.(*Symbol).Value)
			}
		default:
			errs = append(errs, p.errorOn(sub, "unknown kernel clause"))
		}
	}
	// Default routine name follows the usual naming convention.
	if len(decl.Routines) == 0 {
		decl.Routines = []string{fmt.Sprintf("%s_code", decl.Name)}
	}
	//
	return decl, errs
}

// Translate an argument declaration of the form:
//
//	(arg role space access [(stencil shape extent)])
func (p *translator) argDecl(list *List) (ArgDecl, error) {
	var decl ArgDecl
	//
	if list.Len() < 4 {
		return decl, p.errorOn(list, "malformed argument declaration")
	}
	//
	for _, e := range list.Elements[1:4] {
		if !e.IsSymbol() {
			return decl, p.errorOn(e, "expected argument token")
		}
	}
	//
	decl.Role = list.Elements[1].(*Symbol).Value
	decl.Space = list.Elements[2].(*Symbol).Value
	decl.Access = list.Elements[3].(*Symbol).Value
	decl.Stencil = util.None[StencilDecl]()
	decl.Location = p.srcfile.Location(list.Span())
	//
	if list.Len() == 5 {
		stencil, err := p.stencilDecl(list.Elements[4])
		if err != nil {
			return decl, err
		}
		//
		decl.Stencil = util.Some(stencil)
	} else if list.Len() > 5 {
		return decl, p.errorOn(list.Elements[5], "unexpected argument clause")
	}
	//
	return decl, nil
}

// Translate a stencil declaration of the form: (stencil shape extent)
func (p *translator) stencilDecl(term SExp) (StencilDecl, error) {
	var decl StencilDecl
	//
	list, ok := term.(*List)
	if !ok || !list.MatchSymbols(1, "stencil") || list.Len() != 3 {
		return decl, p.errorOn(term, "malformed stencil declaration")
	}
	//
	shape, ok1 := list.Elements[1].(*Symbol)
	if !ok1 {
		return decl, p.errorOn(list.Elements[1], "expected stencil shape")
	}
	//
	extent, ok2 := list.Elements[2].(*Symbol)
	if !ok2 {
		return decl, p.errorOn(list.Elements[2], "expected stencil extent")
	}
	//
	n, err := strconv.ParseUint(extent.Value, 10, 32)
	if err != nil || n == 0 {
		return decl, p.errorOn(extent, "stencil extent must be a positive integer")
	}
	//
	decl.Shape = shape.Value
	decl.Extent = uint(n)
	decl.Location = p.srcfile.Location(list.Span())
	//
	return decl, nil
}

// Translate a variable declaration of the form: (var name role type kind)
func (p *translator) varDecl(list *List) (VarDecl, error) {
	var decl VarDecl
	//
	if list.Len() != 5 {
		return decl, p.errorOn(list, "malformed variable declaration")
	}
	//
	for _, e := range list.Elements[1:] {
		if !e.IsSymbol() {
			return decl, p.errorOn(e, "expected variable token")
		}
	}
	//
	decl.Name = list.Elements[1].(*Symbol).Value
	decl.Role = list.Elements[2].(*Symbol).Value
	decl.Type = list.Elements[3].(*Symbol).Value
	decl.Kind = list.Elements[4].(*Symbol).Value
	decl.Location = p.srcfile.Location(list.Span())
	//
	return decl, nil
}

// Translate an invocation of the form:
//
//	(invoke name (call kernel actual ...) ...)
func (p *translator) invoke(list *List) (Invoke, []error) {
	var (
		inv  Invoke
		errs []error
	)
	//
	if list.Len() < 2 || !list.Elements[1].IsSymbol() {
		return inv, []error{p.errorOn(list, "malformed invocation")}
	}
	//
	inv.Name = list.Elements[1].(*Symbol).Value
	inv.Location = p.srcfile.Location(list.Span())
	//
	for _, clause := range list.Elements[2:] {
		sub, ok := clause.(*List)
		if !ok || !sub.MatchSymbols(1, "call") || sub.Len() < 2 || !sub.Elements[1].IsSymbol() {
			errs = append(errs, p.errorOn(clause, "expected kernel call"))
			continue
		}
		//
		call := CallDecl{
			Kernel:   sub.Elements[1].(*Symbol).Value,
			Location: p.srcfile.Location(sub.Span()),
		}
		//
		for _, a := range sub.Elements[2:] {
			sym, ok2 := a.(*Symbol)
			if !ok2 {
				errs = append(errs, p.errorOn(a, "expected actual argument"))
				continue
			}
			//
			call.Args = append(call.Args, ActualArg{
				Name:      sym.Value,
				IsLiteral: isLiteral(sym.Value),
				Location:  p.srcfile.Location(sym.Span()),
			})
		}
		//
		inv.Calls = append(inv.Calls, call)
	}
	//
	if len(inv.Calls) == 0 && len(errs) == 0 {
		errs = append(errs, p.errorOn(list, "invocation contains no kernel calls"))
	}
	//
	return inv, errs
}

func (p *translator) errorOn(term SExp, msg string) *source.SyntaxError {
	return p.srcfile.SyntaxError(term.Span(), msg)
}

// A token beginning with a digit, sign or decimal point is an actual literal
// rather than a variable reference.
func isLiteral(token string) bool {
	if token == "" {
		return false
	}
	//
	c := rune(token[0])
	//
	return unicode.IsDigit(c) || c == '-' || c == '+' || c == '.'
}
