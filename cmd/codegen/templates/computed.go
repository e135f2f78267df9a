package templates

import (
	"io"

	qt "github.com/valyala/quicktemplate"
)

// StreamComputedGen writes the typed ComputedN constructors for 1..count
// upstream values.
func StreamComputedGen(qw *qt.Writer, count int) {
	qw.N().S(`// Code generated by codegen. DO NOT EDIT.

package store

import "github.com/delaneyj/trackstate/sched"
`)
	for n := 1; n <= count; n++ {
		streamComputedN(qw, n)
	}
}

func streamComputedN(qw *qt.Writer, n int) {
	params := prefixedStrings("A", n)

	qw.N().S("\n// Computed")
	qw.N().D(n)
	qw.N().S(" derives a value from ")
	qw.N().D(n)
	qw.N().S(" upstream ")
	qw.N().S(plural(n, "value"))
	qw.N().S(".\n")

	qw.N().S("func Computed")
	qw.N().D(n)
	qw.N().S("[")
	qw.N().S(params)
	qw.N().S(", T any](\n\tsc *sched.Context,\n")
	for i := 0; i < n; i++ {
		qw.N().S("\targ")
		qw.N().D(i)
		qw.N().S(" Readable[A")
		qw.N().D(i)
		qw.N().S("],\n")
	}
	qw.N().S("\tfn func(")
	qw.N().S(params)
	qw.N().S(`) (T, error),
	opts ...Option,
) (*Computed[T], error) {
	return NewComputed(sc, []Source{`)
	qw.N().S(prefixedStrings("arg", n))
	qw.N().S(`}, func() (T, error) {
		var zero T
`)
	for i := 0; i < n; i++ {
		qw.N().S("\t\tv")
		qw.N().D(i)
		qw.N().S(", err := arg")
		qw.N().D(i)
		qw.N().S(`.Read()
		if err != nil {
			return zero, err
		}
`)
	}
	qw.N().S("\t\treturn fn(")
	qw.N().S(prefixedStrings("v", n))
	qw.N().S(")\n\t}, opts...)\n}\n")
}

func WriteComputedGen(w io.Writer, count int) {
	qw := qt.AcquireWriter(w)
	StreamComputedGen(qw, count)
	qt.ReleaseWriter(qw)
}

func ComputedGen(count int) string {
	bb := qt.AcquireByteBuffer()
	WriteComputedGen(bb, count)
	out := string(bb.B)
	qt.ReleaseByteBuffer(bb)
	return out
}
