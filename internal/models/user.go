package models

import (
	"strings"
	"time"
)

// SellerProfile is kept on the user so seller submissions can be prefilled.
type SellerProfile struct {
	StoreName string `json:"storeName"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	GSTIN     string `json:"gstin,omitempty"`
}

// User is a customer profile, keyed by lowercased email.
type User struct {
	ID                 string         `json:"id"`
	Email              string         `json:"email"`
	DisplayName        string         `json:"displayName,omitempty"`
	PhotoURL           string         `json:"photoURL,omitempty"`
	Phone              string         `json:"phone,omitempty"`
	Addresses          []Address      `json:"addresses"`
	Preferences        map[string]any `json:"preferences,omitempty"`
	SellerProfile      *SellerProfile `json:"sellerProfile,omitempty"`
	OnboardingComplete bool           `json:"onboardingComplete"`
	OrderCount         int64          `json:"orderCount"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// UserKey is the document id of a user: the lowercased, trimmed email.
func UserKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsSeller reports whether the user has set up a seller profile.
func (u User) IsSeller() bool {
	return u.SellerProfile != nil && u.SellerProfile.StoreName != ""
}

// ToDocument renders the full user document.
func (u User) ToDocument() map[string]any {
	addrs := make([]any, 0, len(u.Addresses))
	for _, a := range u.Addresses {
		addrs = append(addrs, a.toDocument())
	}
	doc := map[string]any{
		"email":              u.Email,
		"displayName":        u.DisplayName,
		"photoURL":           u.PhotoURL,
		"phone":              u.Phone,
		"addresses":          addrs,
		"onboardingComplete": u.OnboardingComplete,
		"orderCount":         u.OrderCount,
		"createdAt":          u.CreatedAt,
		"updatedAt":          u.UpdatedAt,
	}
	if u.Preferences != nil {
		doc["preferences"] = u.Preferences
	}
	if u.SellerProfile != nil {
		doc["sellerProfile"] = u.SellerProfile.toDocument()
	}
	return doc
}

func (s SellerProfile) toDocument() map[string]any {
	return map[string]any{
		"storeName": s.StoreName,
		"phone":     s.Phone,
		"address":   s.Address,
		"gstin":     s.GSTIN,
	}
}

// UserFromDocument reads a user document.
func UserFromDocument(id string, doc map[string]any) User {
	u := User{
		ID:          id,
		Email:       FirstString(doc, "email", "Email"),
		DisplayName: FirstString(doc, "displayName", "name", "Name"),
		PhotoURL:    FirstString(doc, "photoURL"),
		Phone:       FirstString(doc, "phone", "Phone"),
		Addresses:   []Address{},
	}
	if u.Email == "" {
		u.Email = id
	}
	u.OnboardingComplete, _ = Bool(doc["onboardingComplete"])
	u.OrderCount, _ = Int(doc["orderCount"])
	if v, _, ok := First(doc, "createdAt", "joinedAt"); ok {
		u.CreatedAt, _ = Time(v)
	}
	u.UpdatedAt, _ = Time(doc["updatedAt"])
	if prefs, ok := Map(doc["preferences"]); ok {
		u.Preferences = prefs
	}
	if sp, ok := Map(doc["sellerProfile"]); ok {
		u.SellerProfile = &SellerProfile{
			StoreName: FirstString(sp, "storeName", "name"),
			Phone:     FirstString(sp, "phone"),
			Address:   FirstString(sp, "address"),
			GSTIN:     FirstString(sp, "gstin"),
		}
	}
	raw, _ := Slice(doc["addresses"])
	for _, r := range raw {
		if m, ok := Map(r); ok {
			u.Addresses = append(u.Addresses, AddressFromDocument(m))
		}
	}
	return u
}

// UpdateProfileRequest carries the editable profile fields. Nil fields are left untouched.
type UpdateProfileRequest struct {
	DisplayName   *string        `json:"displayName,omitempty"`
	Phone         *string        `json:"phone,omitempty" binding:"omitempty,phone"`
	Addresses     *[]Address     `json:"addresses,omitempty" binding:"omitempty,dive"`
	Preferences   map[string]any `json:"preferences,omitempty"`
	SellerProfile *SellerProfile `json:"sellerProfile,omitempty"`
}

// Fields returns the document fields the request changes.
func (r UpdateProfileRequest) Fields() map[string]any {
	fields := map[string]any{}
	if r.DisplayName != nil {
		fields["displayName"] = *r.DisplayName
	}
	if r.Phone != nil {
		fields["phone"] = *r.Phone
	}
	if r.Addresses != nil {
		addrs := make([]any, 0, len(*r.Addresses))
		for _, a := range *r.Addresses {
			addrs = append(addrs, a.toDocument())
		}
		fields["addresses"] = addrs
	}
	if r.Preferences != nil {
		fields["preferences"] = r.Preferences
	}
	if r.SellerProfile != nil {
		fields["sellerProfile"] = r.SellerProfile.toDocument()
	}
	return fields
}
