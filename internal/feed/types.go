package feed

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// The upstream feeds are loose about types: identifiers arrive as
// numbers or strings depending on the source, prices as numbers,
// numeric strings, empty strings, or "-". The flex types absorb that
// here so the rest of the codebase sees one canonical schema.

// flexString decodes a JSON string, number, or null into a trimmed string.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return string(f) }

// flexFloat decodes a JSON number or numeric string. Anything else
// (null, "", "-", garbage) leaves it unset rather than failing the row.
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	f.Value = v
	f.Set = true
	return nil
}

func (f flexFloat) ptr() *float64 {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

// rawStation mirrors one station feed row, including the legacy
// lowercase price aliases some sources still emit.
type rawStation struct {
	ID            flexString `json:"id"`
	PBL           flexString `json:"pbl"`
	EDS           flexString `json:"eds"`
	NombreEDS     flexString `json:"Nombre_EDS"`
	Marca         flexString `json:"Marca"`
	Region        flexString `json:"Region"`
	Comuna        flexString `json:"Comuna"`
	Direccion     flexString `json:"Direccion"`
	Latitud       flexString `json:"latitud"`
	Longitud      flexString `json:"longitud"`
	G93           flexFloat  `json:"G93"`
	G95           flexFloat  `json:"G95"`
	G97           flexFloat  `json:"G97"`
	Diesel        flexFloat  `json:"Diesel"`
	Kerosene      flexFloat  `json:"Kerosene"`
	PrecioG93     flexFloat  `json:"precio_g93"`
	PrecioG95     flexFloat  `json:"precio_g95"`
	PrecioG97     flexFloat  `json:"precio_g97"`
	PrecioDiesel  flexFloat  `json:"precio_diesel"`
	PrecioKero    flexFloat  `json:"precio_kerosene"`
	GuerraPrecio  flexString `json:"Guerra_Precio"`
	Actualizacion flexString `json:"Actualizacion"`
	Nivel         flexString `json:"nivel"`
	Autoservicio  flexString `json:"islas_autoservicio"`
	JefeZona      flexString `json:"jefe_zona"`
	TipoAtencion  flexString `json:"tipo_atencion"`
}

type rawCompetitor struct {
	rawStation
	MarcadorPrincipal flexString `json:"Marcador_Principal"`
}

type rawWarStation struct {
	IDCNE        flexString `json:"id_cne"`
	Nombre       flexString `json:"nombre"`
	Region       flexString `json:"region"`
	Tipo         flexString `json:"tipo"`
	Activo       flexString `json:"activo"`
	GuerraPrecio flexString `json:"Guerra_Precio"`
	PBL          flexString `json:"pbl"`
}

type rawAlert struct {
	NombreEDS       flexString `json:"Nombre_EDS"`
	Marca           flexString `json:"Marca"`
	CodigoCNE       flexString `json:"Codigo_CNE"`
	TipoCombustible flexString `json:"Tipo_Combustible"`
	PrecioActual    flexFloat  `json:"Precio_Actual"`
	PrecioAnterior  flexFloat  `json:"Precio_Anterior"`
	FechaActual     flexString `json:"Fecha_Actual"`
	FechaAnterior   flexString `json:"Fecha_Anterior"`
	TipoAtencion    flexString `json:"Tipo_Atencion"`
	GuerraPrecio    flexString `json:"Guerra_Precio"`
}

func yes(f flexString) bool {
	return strings.EqualFold(strings.TrimSpace(string(f)), "Si")
}

func firstSet(a, b flexFloat) *float64 {
	if a.Set {
		return a.ptr()
	}
	return b.ptr()
}

func firstNonEmpty(vals ...flexString) string {
	for _, v := range vals {
		if v != "" {
			return string(v)
		}
	}
	return ""
}
