package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"`
	IsVerified bool               `bson:"isVerified" json:"isVerified"`
	// OTP fields are shared by email verification and password reset, and
	// cleared once either flow completes.
	Otp        string    `bson:"otp,omitempty" json:"-"`
	OtpExpires time.Time `bson:"otpExpires,omitempty" json:"-"`
}

// OtpValid reports whether the given code matches the pending one and has not
// expired. Wrong and stale codes are indistinguishable to callers.
func (u *User) OtpValid(code string, now time.Time) bool {
	return u.Otp != "" && u.Otp == code && now.Before(u.OtpExpires)
}
