package styles

// Defaults returns the built-in bottom of the cascade. Every resolved style
// starts from these values, so text always has a font and vector shapes
// always have a defined (if empty) fill.
func Defaults() Style {
	return Style{
		AttrFontName:    "Helvetica",
		AttrFontSize:    12.0,
		AttrFontColor:   Color{A: 1},
		AttrAlignment:   AlignLeft,
		AttrLineSpacing: 1.0,
		AttrOpacity:     1.0,
		AttrBulletStyle: BulletNone,
	}
}

// Overlay folds cascade levels left to right: a later level's explicit
// attribute replaces the accumulator's value, an attribute explicitly set
// to nil removes it (inheritance cancel), and an absent attribute leaves
// the accumulator untouched. Nil levels are skipped.
func Overlay(levels ...Style) Style {
	out := Style{}
	for _, level := range levels {
		for attr, v := range level {
			if v == nil {
				delete(out, attr)
				continue
			}
			out[attr] = v
		}
	}
	return out
}

type cacheKey struct {
	shapeID uint32
	run     int
	cell    int
}

// Resolver folds cascade levels and caches the result per shape (and per
// text run within a shape). The cache is scoped to one conversion run; it
// assumes the document no longer mutates, which makes repeated resolution
// of the same shape deterministic and cheap.
type Resolver struct {
	defaults Style
	cache    map[cacheKey]Style
}

func NewResolver() *Resolver {
	return &Resolver{
		defaults: Defaults(),
		cache:    make(map[cacheKey]Style),
	}
}

// Shape resolves the cascade for a shape. Levels must be ordered
// theme → master → slide → shape; the built-in defaults are prepended.
func (r *Resolver) Shape(shapeID uint32, levels ...Style) Style {
	return r.resolve(cacheKey{shapeID: shapeID, run: -1, cell: -1}, levels)
}

// Run resolves the cascade for one text run inside a shape. Levels extend
// the shape's levels with paragraph and run overrides.
func (r *Resolver) Run(shapeID uint32, run int, levels ...Style) Style {
	return r.resolve(cacheKey{shapeID: shapeID, run: run, cell: -1}, levels)
}

// Cell resolves the cascade for one table cell. Cells get their own key
// space so a cell override never collides with the table's own entry.
func (r *Resolver) Cell(shapeID uint32, cell int, levels ...Style) Style {
	return r.resolve(cacheKey{shapeID: shapeID, run: -1, cell: cell}, levels)
}

func (r *Resolver) resolve(key cacheKey, levels []Style) Style {
	if cached, ok := r.cache[key]; ok {
		return cached
	}
	all := make([]Style, 0, len(levels)+1)
	all = append(all, r.defaults)
	all = append(all, levels...)
	resolved := Overlay(all...)
	r.cache[key] = resolved
	return resolved
}
