package model

// User is the display record joined onto riders and change-log actors.
//
// Fields:
//  ID    – users.id
//  Name  – display name shown in the admin views.
//  Phone – contact number shown on rider cards.
//  Email – contact address used for confirmation emails.
//  Role  – ADMIN or STUDENT.
type User struct {
    ID    uint64
    Name  string
    Phone string
    Email string
    Role  string
}
