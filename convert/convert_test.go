package convert_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rkuznets/vanish/convert"
)

func TestVariant_Accepts(t *testing.T) {
	v := convert.Variant{
		Name:       "image",
		InputTypes: []string{"image/jpeg", "image/png"},
	}

	assert.True(t, v.Accepts("image/jpeg"))
	assert.True(t, v.Accepts("image/png"))
	assert.False(t, v.Accepts("image/gif"))
	assert.False(t, v.Accepts("image/jpeg; charset=utf-8"), "matching is exact, parameters are not stripped")
	assert.False(t, v.Accepts("IMAGE/JPEG"), "matching is case sensitive")
	assert.False(t, v.Accepts(""))
}

func TestVariants_Lookup(t *testing.T) {
	vs := convert.Default()

	v, ok := vs.Lookup("pdf")
	assert.True(t, ok)
	assert.Equal(t, "pdf", v.Name)

	_, ok = vs.Lookup("docx")
	assert.False(t, ok)
}

func TestVariants_Validate(t *testing.T) {
	noop := convert.ConverterFunc(func(ctx context.Context, in, out string, opts convert.Options) error {
		return nil
	})

	tests := []struct {
		name    string
		vs      convert.Variants
		wantErr bool
	}{
		{
			name: "valid",
			vs: convert.Variants{
				"x": {Name: "x", InputTypes: []string{"text/plain"}, OutputType: "application/pdf", OutputExt: ".pdf", Converter: noop},
			},
		},
		{
			name: "name mismatch",
			vs: convert.Variants{
				"x": {Name: "y", InputTypes: []string{"text/plain"}, OutputType: "application/pdf", OutputExt: ".pdf", Converter: noop},
			},
			wantErr: true,
		},
		{
			name: "no input types",
			vs: convert.Variants{
				"x": {Name: "x", OutputType: "application/pdf", OutputExt: ".pdf", Converter: noop},
			},
			wantErr: true,
		},
		{
			name: "no output format",
			vs: convert.Variants{
				"x": {Name: "x", InputTypes: []string{"text/plain"}, Converter: noop},
			},
			wantErr: true,
		},
		{
			name: "no converter",
			vs: convert.Variants{
				"x": {Name: "x", InputTypes: []string{"text/plain"}, OutputType: "application/pdf", OutputExt: ".pdf"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.vs.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	vs := convert.Default()

	assert.NoError(t, vs.Validate())
	for _, name := range []string{"pdf", "image", "text"} {
		v, ok := vs.Lookup(name)
		assert.True(t, ok, "built-in variant %q must exist", name)
		assert.Equal(t, "application/pdf", v.OutputType)
		assert.Equal(t, ".pdf", v.OutputExt)
	}
}

func TestConverterFunc(t *testing.T) {
	want := errors.New("boom")
	var gotIn, gotOut string
	f := convert.ConverterFunc(func(ctx context.Context, in, out string, opts convert.Options) error {
		gotIn, gotOut = in, out
		return want
	})

	err := f.Convert(context.Background(), "a", "b", convert.Options{})
	assert.ErrorIs(t, err, want)
	assert.Equal(t, "a", gotIn)
	assert.Equal(t, "b", gotOut)
}
