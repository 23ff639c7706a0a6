package schema

const (
	EntityHospital EntityType = "hospital"
	EntityDoctor   EntityType = "doctor"
)

// Hospital columns.
const (
	HospitalName     = "name"
	HospitalWorktime = "worktime"
	HospitalPhone    = "phone"
	HospitalAddress  = "address"
)

// Doctor columns.
const (
	DoctorName       = "name"
	DoctorSpeciality = "speciality"
	DoctorPhone      = "phone"
	DoctorWorktime   = "worktime"
)

var Hospital = NewEntity(EntityHospital, "hospitals", "hospitals",
	Column{Name: HospitalName, Type: TypeText},
	Column{Name: HospitalWorktime, Type: TypeText, Nullable: true},
	Column{Name: HospitalPhone, Type: TypeText, Nullable: true},
	Column{Name: HospitalAddress, Type: TypeText, Nullable: true},
)

var Doctor = NewEntity(EntityDoctor, "doctors", "doctors",
	Column{Name: DoctorName, Type: TypeText},
	Column{Name: DoctorSpeciality, Type: TypeText, Nullable: true},
	Column{Name: DoctorPhone, Type: TypeText, Nullable: true},
	Column{Name: DoctorWorktime, Type: TypeText, Nullable: true},
)

// All returns the built-in entities in registration order.
func All() []Entity {
	return []Entity{Hospital, Doctor}
}
