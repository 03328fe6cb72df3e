package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// Timeout operations after N seconds
	connectTimeout           = 5
	opTimeout                = 5
	connectionStringTemplate = "mongodb://%s:%s@%s"

	databaseName    = "todo"
	todosCollection = "todos"
	usersCollection = "users"
)

// getConnection retrieves a client to the MongoDB cluster named by the
// MONGODB_* environment variables.
func getConnection() (*mongo.Client, error) {
	username := os.Getenv("MONGODB_USERNAME")
	password := os.Getenv("MONGODB_PASSWORD")
	clusterEndpoint := os.Getenv("MONGODB_ENDPOINT")

	connectionURI := fmt.Sprintf(connectionStringTemplate, username, password, clusterEndpoint)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cluster: %w", err)
	}

	// Force a connection to verify our connection string
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping cluster: %w", err)
	}

	log.Info("Connected to MongoDB!")
	return client, nil
}

// mongoDocuments is the documents backend over the todos collection, one
// document per record, keyed by the record id.
type mongoDocuments struct {
	coll *mongo.Collection
}

func newMongoDocuments(client *mongo.Client) *mongoDocuments {
	return &mongoDocuments{coll: client.Database(databaseName).Collection(todosCollection)}
}

func (m *mongoDocuments) FindAll(ctx context.Context) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout*time.Second)
	defer cancel()

	cursor, err := m.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (m *mongoDocuments) Set(ctx context.Context, id string, rec Record) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout*time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": id}, rec, opts)
	return err
}

func (m *mongoDocuments) Update(ctx context.Context, id string, rec Record) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"title":   rec.Title,
		"body":    rec.Body,
		"date":    rec.Date,
		"sticker": rec.Sticker,
		"done":    rec.Done,
	}}
	_, err := m.coll.UpdateByID(ctx, id, update)
	return err
}

func (m *mongoDocuments) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout*time.Second)
	defer cancel()

	_, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// user is the persisted identity record. The hash never leaves this file.
type user struct {
	Email        string    `bson:"_id"`
	PasswordHash []byte    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

// mongoIdentities is the identities backend over the users collection,
// keyed by email, passwords stored as bcrypt hashes.
type mongoIdentities struct {
	coll *mongo.Collection
}

func newMongoIdentities(client *mongo.Client) *mongoIdentities {
	return &mongoIdentities{coll: client.Database(databaseName).Collection(usersCollection)}
}

func (m *mongoIdentities) SignIn(ctx context.Context, email, password string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout*time.Second)
	defer cancel()

	var u user
	err := m.coll.FindOne(ctx, bson.M{"_id": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &AuthError{Code: "auth/user-not-found", Message: "no account for " + email}
	}
	if err != nil {
		return &AuthError{Code: "auth/internal-error", Message: "sign-in lookup failed", Err: err}
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return &AuthError{Code: "auth/wrong-password", Message: "invalid credentials"}
	}
	return nil
}

func (m *mongoIdentities) SignUp(ctx context.Context, email, password string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout*time.Second)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return &AuthError{Code: "auth/internal-error", Message: "could not hash password", Err: err}
	}
	_, err = m.coll.InsertOne(ctx, user{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return &AuthError{Code: "auth/email-already-in-use", Message: email + " is already registered"}
	}
	if err != nil {
		return &AuthError{Code: "auth/internal-error", Message: "could not create account", Err: err}
	}
	return nil
}

func (m *mongoIdentities) SignOut(ctx context.Context, email string) error {
	// The provider keeps no server-side session for us to revoke.
	return nil
}

func (m *mongoIdentities) DeleteAccount(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout*time.Second)
	defer cancel()

	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": email})
	if err != nil {
		return &AuthError{Code: "auth/internal-error", Message: "could not delete account", Err: err}
	}
	if res.DeletedCount == 0 {
		return &AuthError{Code: "auth/user-not-found", Message: "no account for " + email}
	}
	return nil
}
