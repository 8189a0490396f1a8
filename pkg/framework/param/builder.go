package param

// Builder provides a fluent API for creating parameters
type Builder struct {
	param *Parameter
}

// New starts a parameter with a 0-1 range and automation enabled.
func New(id uint32, name string) *Builder {
	return &Builder{
		param: &Parameter{
			ID:        id,
			Name:      name,
			ShortName: name,
			Max:       1,
			Flags:     CanAutomate,
		},
	}
}

// ShortName sets the short name
func (b *Builder) ShortName(name string) *Builder {
	b.param.ShortName = name
	return b
}

// Range sets the plain min and max. Call before Default.
func (b *Builder) Range(min, max float64) *Builder {
	b.param.Min = min
	b.param.Max = max
	return b
}

// Default sets the default from a plain value.
func (b *Builder) Default(plain float64) *Builder {
	b.param.DefaultValue = b.param.Normalize(plain)
	return b
}

// DefaultNormalized sets the default directly in 0-1.
func (b *Builder) DefaultNormalized(value float64) *Builder {
	b.param.DefaultValue = clamp01(value)
	return b
}

// Unit sets the unit string
func (b *Builder) Unit(unit string) *Builder {
	b.param.Unit = unit
	return b
}

// Steps sets the number of discrete steps
func (b *Builder) Steps(count int32) *Builder {
	b.param.StepCount = count
	return b
}

// Flags replaces the parameter flags
func (b *Builder) Flags(flags uint32) *Builder {
	b.param.Flags = flags
	return b
}

// Toggle makes a two-state parameter.
func (b *Builder) Toggle() *Builder {
	b.param.Min = 0
	b.param.Max = 1
	b.param.StepCount = 1
	return b
}

// ReadOnly marks the parameter as read-only
func (b *Builder) ReadOnly() *Builder {
	b.param.Flags |= IsReadOnly
	b.param.Flags &^= CanAutomate
	return b
}

// Hidden marks the parameter as hidden
func (b *Builder) Hidden() *Builder {
	b.param.Flags |= IsHidden
	return b
}

// ProgramChange marks the parameter as the program selector.
func (b *Builder) ProgramChange() *Builder {
	b.param.Flags |= IsProgramChange | IsList
	return b
}

// Formatter sets custom value formatting and parsing
func (b *Builder) Formatter(format func(float64) string, parse func(string) (float64, error)) *Builder {
	b.param.formatFunc = format
	b.param.parseFunc = parse
	return b
}

// Build returns the parameter holding its default value.
func (b *Builder) Build() *Parameter {
	b.param.Reset()
	return b.param
}
