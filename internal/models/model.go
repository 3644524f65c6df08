package models

// NormalizedRecord is a validated model row. Pointer fields are nil when the
// source did not provide a usable value.
type NormalizedRecord struct {
	Parameters      *float64
	DatasetSize     *float64
	Year            *int
	Frontier        *bool
	Name            string
	Organization    string
	Domain          string
	PrimaryDomain   string
	Category        string
	PublicationDate string
	Confidence      string
	Notability      string
	// X and Y are the raw axis values selected for the chart, before any log scaling.
	X float64
	Y float64
}

// Metadata builds the point payload carried alongside the plotted coordinates.
func (r *NormalizedRecord) Metadata() PointMetadata {
	return PointMetadata{
		Organization:    r.Organization,
		Parameters:      r.Parameters,
		DatasetSize:     r.DatasetSize,
		PublicationDate: r.PublicationDate,
		Year:            r.Year,
		Domain:          r.Domain,
		Confidence:      r.Confidence,
		Frontier:        r.Frontier,
		Notability:      r.Notability,
	}
}
