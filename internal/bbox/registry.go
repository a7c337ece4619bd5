package bbox

// Registry holds the supported codecs in detection priority order.
//
// The set of formats is fixed; a Registry only varies in codec options such
// as the YOLO label position. Registries are immutable after construction and
// safe for concurrent use.
type Registry struct {
	codecs   []Codec
	byFormat map[Format]Codec
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	yoloLabelPosition LabelPosition
}

// WithYOLOLabelPosition sets where the YOLO codec writes class tokens.
func WithYOLOLabelPosition(p LabelPosition) RegistryOption {
	return func(o *registryOptions) {
		o.yoloLabelPosition = p
	}
}

// NewRegistry builds a registry ordered tesseract_box, yolo, pascal_voc, coco:
// the least ambiguous heuristic runs first.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{yoloLabelPosition: ClassLast}
	for _, opt := range opts {
		opt(&o)
	}

	codecs := []Codec{
		TesseractBox{},
		YOLO{LabelPosition: o.yoloLabelPosition},
		PascalVOC{},
		COCO{},
	}
	byFormat := make(map[Format]Codec, len(codecs))
	for _, c := range codecs {
		byFormat[c.Format()] = c
	}
	return &Registry{codecs: codecs, byFormat: byFormat}
}

// Codecs returns the codecs in detection priority order.
func (r *Registry) Codecs() []Codec {
	out := make([]Codec, len(r.codecs))
	copy(out, r.codecs)
	return out
}

// Detect returns the first codec, in priority order, whose heuristic accepts
// content. The second result is false when no codec matches.
func (r *Registry) Detect(content string) (Codec, bool) {
	for _, c := range r.codecs {
		if c.Detect(content) {
			return c, true
		}
	}
	return nil, false
}

// Provider looks up a codec by format id.
func (r *Registry) Provider(f Format) (Codec, bool) {
	c, ok := r.byFormat[f]
	return c, ok
}

// Resolve chooses the codec for a resource.
//
// The order is: the codec cached for resource, then detection over content,
// then the configured format, then COCO. The result is stored in cache so
// later reads and writes for the same resource agree. cache may be nil, in
// which case nothing is remembered.
func (r *Registry) Resolve(cache *FormatCache, resource, content string, configured Format) Codec {
	if cache != nil {
		if c, ok := cache.Get(resource); ok {
			return c
		}
	}

	c, ok := r.Detect(content)
	if !ok {
		c, ok = r.Provider(configured)
	}
	if !ok {
		c = r.byFormat[FormatCOCO]
	}

	if cache != nil {
		cache.Set(resource, c)
	}
	return c
}

// Parse parses content with the codec for f, falling back to COCO for
// unknown ids.
func (r *Registry) Parse(f Format, content string, imgWidth, imgHeight int) []Box {
	return r.codecOrCOCO(f).Parse(content, imgWidth, imgHeight)
}

// Serialize renders boxes with the codec for f, falling back to COCO for
// unknown ids.
func (r *Registry) Serialize(f Format, boxes []Box, imgWidth, imgHeight int) string {
	return r.codecOrCOCO(f).Serialize(boxes, imgWidth, imgHeight)
}

func (r *Registry) codecOrCOCO(f Format) Codec {
	if c, ok := r.byFormat[f]; ok {
		return c
	}
	return r.byFormat[FormatCOCO]
}
