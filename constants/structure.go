package constants

// Structure is a building structure class used for depreciation.
type Structure string

const (
	StructureWood       Structure = "木造"
	StructureLightSteel Structure = "軽量鉄骨造"
	StructureHeavySteel Structure = "重量鉄骨造"
	StructureRC         Structure = "RC造・SRC造"
)

// AllStructures returns the structure classes in display order.
func AllStructures() []Structure {
	return []Structure{StructureWood, StructureLightSteel, StructureHeavySteel, StructureRC}
}
