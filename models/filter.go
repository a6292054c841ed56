package models

type Operation string

const (
	OperationSale   Operation = "venta"
	OperationRental Operation = "alquiler"
)

type PropertyType string

const (
	PropertyHouse           PropertyType = "casa"
	PropertyApartment       PropertyType = "apartamento"
	PropertyDepartment      PropertyType = "departamento"
	PropertyLand            PropertyType = "terreno"
	PropertyLot             PropertyType = "lote"
	PropertyStore           PropertyType = "local"
	PropertyCommercialStore PropertyType = "local-comercial"
	PropertyOffice          PropertyType = "oficina"
	PropertyGarage          PropertyType = "garage"
	PropertyParking         PropertyType = "cochera"
	PropertyFarm            PropertyType = "campo"
	PropertyRanch           PropertyType = "estancia"
	PropertyDuplex          PropertyType = "duplex"
	PropertyPenthouse       PropertyType = "penthouse"
	PropertyAny             PropertyType = "inmuebles"
	PropertyHousesAndApts   PropertyType = "casas-y-departamentos"
)

// IsResidential reports whether the type can be recovered from the combined
// houses-and-apartments category.
func (p PropertyType) IsResidential() bool {
	return p == PropertyHouse || p == PropertyApartment || p == PropertyDepartment
}

// IsGeneral reports whether the type is already one of the broad categories.
func (p PropertyType) IsGeneral() bool {
	return p == PropertyAny || p == PropertyHousesAndApts
}

// Option is a selectable value offered to the chat and HTTP layers.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var PropertyTypeOptions = []Option{
	{Value: string(PropertyHouse), Label: "Casa"},
	{Value: string(PropertyApartment), Label: "Apartamento"},
	{Value: string(PropertyLand), Label: "Terreno"},
	{Value: string(PropertyStore), Label: "Local Comercial"},
	{Value: string(PropertyOffice), Label: "Oficina"},
	{Value: string(PropertyFarm), Label: "Campo"},
}

var OperationOptions = []Option{
	{Value: string(OperationSale), Label: "Venta"},
	{Value: string(OperationRental), Label: "Alquiler"},
}

// SearchFilter is an immutable search request. Optional values are nil when
// unset; accumulate partial filters with MergeFilter rather than mutating one.
type SearchFilter struct {
	Operation     Operation    `json:"operation,omitempty"`
	PropertyType  PropertyType `json:"property_type,omitempty"`
	Location      string       `json:"location,omitempty"`
	LocationLabel string       `json:"location_label,omitempty"`
	PriceMin      *float64     `json:"price_min,omitempty"`
	PriceMax      *float64     `json:"price_max,omitempty"`
	Bedrooms      *int         `json:"bedrooms,omitempty"`
	Bathrooms     *int         `json:"bathrooms,omitempty"`
	Page          int          `json:"page,omitempty"`
}

// Clone returns a copy that shares no pointers with f.
func (f SearchFilter) Clone() SearchFilter {
	if f.PriceMin != nil {
		f.PriceMin = Float64(*f.PriceMin)
	}
	if f.PriceMax != nil {
		f.PriceMax = Float64(*f.PriceMax)
	}
	if f.Bedrooms != nil {
		f.Bedrooms = Int(*f.Bedrooms)
	}
	if f.Bathrooms != nil {
		f.Bathrooms = Int(*f.Bathrooms)
	}
	return f
}

// MergeFilter returns a new filter with every field set in next taking
// precedence over prev. Neither argument is modified.
func MergeFilter(prev, next SearchFilter) SearchFilter {
	out := prev.Clone()
	if next.Operation != "" {
		out.Operation = next.Operation
	}
	if next.PropertyType != "" {
		out.PropertyType = next.PropertyType
	}
	if next.Location != "" {
		out.Location = next.Location
		// a label only describes the location it was captured with
		out.LocationLabel = next.LocationLabel
	} else if next.LocationLabel != "" {
		out.LocationLabel = next.LocationLabel
	}
	if next.PriceMin != nil {
		out.PriceMin = Float64(*next.PriceMin)
	}
	if next.PriceMax != nil {
		out.PriceMax = Float64(*next.PriceMax)
	}
	if next.Bedrooms != nil {
		out.Bedrooms = Int(*next.Bedrooms)
	}
	if next.Bathrooms != nil {
		out.Bathrooms = Int(*next.Bathrooms)
	}
	if next.Page > 0 {
		out.Page = next.Page
	}
	return out
}

// Missing lists the required components that are still unset.
func (f SearchFilter) Missing() []string {
	var missing []string
	if f.Operation == "" {
		missing = append(missing, "operation")
	}
	if f.PropertyType == "" {
		missing = append(missing, "property_type")
	}
	if f.Location == "" {
		missing = append(missing, "location")
	}
	return missing
}

func (f SearchFilter) Complete() bool {
	return len(f.Missing()) == 0
}

// EffectivePage never returns less than 1.
func (f SearchFilter) EffectivePage() int {
	if f.Page < 1 {
		return 1
	}
	return f.Page
}

func Float64(v float64) *float64 { return &v }
func Int(v int) *int             { return &v }
func String(v string) *string    { return &v }
