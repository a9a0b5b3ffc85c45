package catalog

// Product is the unit of work flowing through the pipeline. The identity is
// the opaque ID assigned by the catalog store; all pipeline state lives in
// the tag set, never in separate storage.
type Product struct {
	ID          string
	Title       string
	RawType     string
	Cost        float64
	Price       float64
	Tags        []string
	Collections []string
}
