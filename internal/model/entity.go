package model

import "time"

// Registration types accepted for entities and buyers.
const (
	RegistrationRegistered              = "Registered"
	RegistrationUnregistered            = "Unregistered"
	RegistrationUnregisteredDistributor = "Unregistered Distributor"
	RegistrationRetailCustomer          = "Retail Customer"
)

// Provinces accepted for entities and buyers.
const (
	ProvinceBalochistan       = "BALOCHISTAN"
	ProvinceAJK               = "AZAD JAMMU AND KASHMIR"
	ProvinceCapitalTerritory  = "CAPITAL TERRITORY"
	ProvinceKhyberPakhtunkhwa = "KHYBER PAKHTUNKHWA"
	ProvincePunjab            = "PUNJAB"
	ProvinceSindh             = "SINDH"
	ProvinceGilgitBaltistan   = "GILGIT BALTISTAN"
)

var registrationTypes = map[string]bool{
	RegistrationRegistered:              true,
	RegistrationUnregistered:            true,
	RegistrationUnregisteredDistributor: true,
	RegistrationRetailCustomer:          true,
}

var provinces = map[string]bool{
	ProvinceBalochistan:       true,
	ProvinceAJK:               true,
	ProvinceCapitalTerritory:  true,
	ProvinceKhyberPakhtunkhwa: true,
	ProvincePunjab:            true,
	ProvinceSindh:             true,
	ProvinceGilgitBaltistan:   true,
}

// ValidRegistrationType reports whether s is an accepted registration type.
func ValidRegistrationType(s string) bool { return registrationTypes[s] }

// ValidProvince reports whether s is an accepted province name.
func ValidProvince(s string) bool { return provinces[s] }

// Entity is a tenant business.  It owns exactly one client Account
// through AccountID.  Deactivating an entity terminates every active
// session of that account in the same atomic step.
//
// Fields:
//  ID               – UUID primary key.
//  AccountID        – the client account created together with the entity.
//  Image            – logo URL or data URI.
//  BusinessName     – registered business name.
//  RegistrationType – one of the Registration* constants.
//  Province         – one of the Province* constants.
//  NTN, CNIC, STRN  – tax identifiers.
//  FullAddress      – postal address.
//  Active           – whether the tenant may log in and be served.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type Entity struct {
	ID               string    `json:"id"`
	AccountID        string    `json:"account_id"`
	Image            string    `json:"image,omitempty"`
	BusinessName     string    `json:"business_name"`
	RegistrationType string    `json:"registration_type"`
	Province         string    `json:"province"`
	NTN              string    `json:"ntn,omitempty"`
	CNIC             string    `json:"cnic,omitempty"`
	STRN             string    `json:"strn,omitempty"`
	FullAddress      string    `json:"full_address"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
