package services

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"go-social/models"
	"go-social/utils/errors"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	locationsGeoKey = "locations:geo"
	earthRadiusKm   = 6371.0
)

// LocationService shares user locations with the contacts each user trusts.
// MongoDB holds the source of truth; Redis mirrors shared locations into a
// geo set and fans out updates over pub/sub.
type LocationService struct {
	locations       *mongo.Collection
	sharingStatus   *mongo.Collection
	trustedContacts *mongo.Collection
	redisClient     *redis.Client
	log             logrus.FieldLogger
}

func NewLocationService(db *mongo.Database, redisClient *redis.Client, logger logrus.FieldLogger) *LocationService {
	const prefix = "locations"
	return &LocationService{
		locations:       db.Collection(prefix + "_locations"),
		sharingStatus:   db.Collection(prefix + "_status"),
		trustedContacts: db.Collection(prefix + "_trusted_contacts"),
		redisClient:     redisClient,
		log:             logger,
	}
}

func (s *LocationService) EnsureIndexes(ctx context.Context) error {
	if err := createIndexes(ctx, s.locations,
		uniqueIndex(bson.D{{Key: "user_id", Value: 1}}),
		index(bson.D{{Key: "point", Value: "2dsphere"}}),
	); err != nil {
		return err
	}
	if err := createIndexes(ctx, s.sharingStatus, uniqueIndex(bson.D{{Key: "user_id", Value: 1}})); err != nil {
		return err
	}
	return createIndexes(ctx, s.trustedContacts,
		uniqueIndex(bson.D{{Key: "user_id", Value: 1}}),
		index(bson.D{{Key: "contacts", Value: 1}}),
	)
}

// ValidateCoordinates rejects points outside the WGS84 range.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return errors.InvalidInput("invalid coordinates: lat=%f, lon=%f", lat, lon)
	}
	return nil
}

// ShareLocation stores or replaces the user's current location.
func (s *LocationService) ShareLocation(ctx context.Context, user primitive.ObjectID, lat, lon float64) (models.Message, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return models.Message{}, err
	}

	var status models.SharingStatus
	err := s.sharingStatus.FindOne(ctx, bson.M{"user_id": user}).Decode(&status)
	if err != nil && err != mongo.ErrNoDocuments {
		return models.Message{}, errors.DB(err, "failed to read sharing status")
	}
	if err == nil && !status.Enabled {
		return models.Message{}, errors.NotAllowed("Location sharing is disabled for this user.")
	}

	timestamp := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"user_id":   user,
		"latitude":  lat,
		"longitude": lon,
		"point":     models.NewGeoPoint(lat, lon),
		"timestamp": timestamp,
	}}
	if _, err := s.locations.UpdateOne(ctx, bson.M{"user_id": user}, update, options.Update().SetUpsert(true)); err != nil {
		return models.Message{}, errors.DB(err, "failed to update location")
	}

	if err := s.redisClient.GeoAdd(ctx, locationsGeoKey, &redis.GeoLocation{
		Name:      user.Hex(),
		Longitude: lon,
		Latitude:  lat,
	}).Err(); err != nil {
		s.log.WithError(err).WithField("user_id", user.Hex()).Warn("Failed to update Redis geospatial index")
	}
	s.publish(ctx, models.LocationUpdate{
		UserID:    user.Hex(),
		Sharing:   true,
		Latitude:  lat,
		Longitude: lon,
		Timestamp: timestamp,
	})

	s.log.WithFields(logrus.Fields{"user_id": user.Hex(), "lat": lat, "lon": lon}).Debug("Location shared")
	return models.Message{Msg: "Location updated successfully."}, nil
}

func (s *LocationService) StopSharingLocation(ctx context.Context, user primitive.ObjectID) (models.Message, error) {
	if _, err := s.locations.DeleteOne(ctx, bson.M{"user_id": user}); err != nil {
		return models.Message{}, errors.DB(err, "failed to remove location")
	}
	if err := s.redisClient.ZRem(ctx, locationsGeoKey, user.Hex()).Err(); err != nil {
		s.log.WithError(err).WithField("user_id", user.Hex()).Warn("Failed to remove user from Redis geospatial index")
	}
	s.publish(ctx, models.LocationUpdate{UserID: user.Hex(), Timestamp: time.Now().UTC()})
	return models.Message{Msg: "Location sharing stopped."}, nil
}

func (s *LocationService) GetLocation(ctx context.Context, user primitive.ObjectID) (models.Location, error) {
	var location models.Location
	err := s.locations.FindOne(ctx, bson.M{"user_id": user}).Decode(&location)
	if err == mongo.ErrNoDocuments {
		return models.Location{}, errors.NotAllowed("User is not sharing their location.")
	}
	if err != nil {
		return models.Location{}, errors.DB(err, "failed to read location")
	}
	return location, nil
}

// CanView reports whether viewer may see owner's location: owners always can,
// others only when owner trusts them.
func (s *LocationService) CanView(ctx context.Context, viewer, owner primitive.ObjectID) (bool, error) {
	if viewer == owner {
		return true, nil
	}
	contacts, err := s.GetTrustedContacts(ctx, owner)
	if err != nil {
		return false, err
	}
	return models.ContainsID(contacts, viewer), nil
}

func (s *LocationService) EnableLocationSharing(ctx context.Context, user primitive.ObjectID) (models.Message, error) {
	if err := s.setSharing(ctx, user, true); err != nil {
		return models.Message{}, err
	}
	return models.Message{Msg: "Location sharing enabled."}, nil
}

// DisableLocationSharing also withdraws any location currently shared.
func (s *LocationService) DisableLocationSharing(ctx context.Context, user primitive.ObjectID) (models.Message, error) {
	if err := s.setSharing(ctx, user, false); err != nil {
		return models.Message{}, err
	}
	if _, err := s.StopSharingLocation(ctx, user); err != nil {
		return models.Message{}, err
	}
	return models.Message{Msg: "Location sharing disabled."}, nil
}

// GetSharingStatus defaults to false for users who never chose.
func (s *LocationService) GetSharingStatus(ctx context.Context, user primitive.ObjectID) (bool, error) {
	var status models.SharingStatus
	err := s.sharingStatus.FindOne(ctx, bson.M{"user_id": user}).Decode(&status)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, errors.DB(err, "failed to read sharing status")
	}
	return status.Enabled, nil
}

func (s *LocationService) AddTrustedContact(ctx context.Context, user, contact primitive.ObjectID) (models.Message, error) {
	if user == contact {
		return models.Message{}, errors.NotAllowed("You cannot add yourself as a trusted contact.")
	}
	contacts, err := s.GetTrustedContacts(ctx, user)
	if err != nil {
		return models.Message{}, err
	}
	if models.ContainsID(contacts, contact) {
		return models.Message{Msg: "Contact is already trusted."}, nil
	}

	now := time.Now().UTC()
	update := bson.M{
		"$addToSet":    bson.M{"contacts": contact},
		"$set":         bson.M{"date_updated": now},
		"$setOnInsert": bson.M{"date_created": now},
	}
	if _, err := s.trustedContacts.UpdateOne(ctx, bson.M{"user_id": user}, update, options.Update().SetUpsert(true)); err != nil {
		return models.Message{}, errors.DB(err, "failed to add trusted contact")
	}
	return models.Message{Msg: "Trusted contact added."}, nil
}

func (s *LocationService) RemoveTrustedContact(ctx context.Context, user, contact primitive.ObjectID) (models.Message, error) {
	update := bson.M{
		"$pull": bson.M{"contacts": contact},
		"$set":  bson.M{"date_updated": time.Now().UTC()},
	}
	result, err := s.trustedContacts.UpdateOne(ctx, bson.M{"user_id": user, "contacts": contact}, update)
	if err != nil {
		return models.Message{}, errors.DB(err, "failed to remove trusted contact")
	}
	if result.MatchedCount == 0 {
		return models.Message{Msg: "Trusted contact not found."}, nil
	}
	return models.Message{Msg: "Trusted contact removed."}, nil
}

func (s *LocationService) GetTrustedContacts(ctx context.Context, user primitive.ObjectID) ([]primitive.ObjectID, error) {
	var doc models.TrustedContacts
	err := s.trustedContacts.FindOne(ctx, bson.M{"user_id": user}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return []primitive.ObjectID{}, nil
	}
	if err != nil {
		return nil, errors.DB(err, "failed to read trusted contacts")
	}
	if doc.Contacts == nil {
		return []primitive.ObjectID{}, nil
	}
	return doc.Contacts, nil
}

// SharersOf returns the users who list user among their trusted contacts.
func (s *LocationService) SharersOf(ctx context.Context, user primitive.ObjectID) ([]primitive.ObjectID, error) {
	docs, err := findAll[models.TrustedContacts](ctx, s.trustedContacts, bson.M{"contacts": user})
	if err != nil {
		return nil, errors.DB(err, "failed to read trusted contacts")
	}
	ids := make([]primitive.ObjectID, len(docs))
	for i, doc := range docs {
		ids[i] = doc.UserID
	}
	return ids, nil
}

// GetTrustedContactsLocations returns the current locations of user's trusted
// contacts. A contact is included only when they trust user back, the same
// rule CanView applies to a single location.
func (s *LocationService) GetTrustedContactsLocations(ctx context.Context, user primitive.ObjectID) ([]models.Location, error) {
	contacts, err := s.GetTrustedContacts(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return []models.Location{}, nil
	}
	docs, err := findAll[models.TrustedContacts](ctx, s.trustedContacts, bson.M{
		"user_id":  bson.M{"$in": contacts},
		"contacts": user,
	})
	if err != nil {
		return nil, errors.DB(err, "failed to read trusted contacts")
	}
	visible := make([]primitive.ObjectID, len(docs))
	for i, doc := range docs {
		visible[i] = doc.UserID
	}
	return s.locationsOf(ctx, visible)
}

// GetSharedWithMe returns the current locations of users who trust user.
func (s *LocationService) GetSharedWithMe(ctx context.Context, user primitive.ObjectID) ([]models.Location, error) {
	sharers, err := s.SharersOf(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.locationsOf(ctx, sharers)
}

func (s *LocationService) locationsOf(ctx context.Context, users []primitive.ObjectID) ([]models.Location, error) {
	if len(users) == 0 {
		return []models.Location{}, nil
	}
	locations, err := findAll[models.Location](ctx, s.locations, bson.M{"user_id": bson.M{"$in": users}})
	if err != nil {
		return nil, errors.DB(err, "failed to read locations")
	}
	return locations, nil
}

// GetNearbyContacts finds users sharing with user within radiusKm of user's
// own shared location, closest first. Usernames are left for the caller.
// The Redis geo set answers the search; MongoDB's 2dsphere index is used
// when Redis is unavailable.
func (s *LocationService) GetNearbyContacts(ctx context.Context, user primitive.ObjectID, radiusKm float64) ([]models.NearbyContact, error) {
	own, err := s.GetLocation(ctx, user)
	if errors.IsNotAllowed(err) {
		return nil, errors.NotAllowed("Share your location to find nearby contacts.")
	}
	if err != nil {
		return nil, err
	}
	sharers, err := s.SharersOf(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(sharers) == 0 {
		return []models.NearbyContact{}, nil
	}
	allowed := make(map[string]bool, len(sharers))
	for _, id := range sharers {
		allowed[id.Hex()] = true
	}

	geoResults, err := s.redisClient.GeoRadius(ctx, locationsGeoKey, own.Longitude, own.Latitude, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		s.log.WithError(err).WithField("user_id", user.Hex()).Warn("Redis GeoRadius failed, searching MongoDB")
		return s.nearbyFromMongo(ctx, own, sharers, radiusKm)
	}

	nearby := []models.NearbyContact{}
	for _, geoResult := range geoResults {
		if geoResult.Name == user.Hex() || !allowed[geoResult.Name] {
			continue
		}
		nearby = append(nearby, models.NearbyContact{
			UserID:   geoResult.Name,
			Distance: geoResult.Dist,
			Lat:      geoResult.Latitude,
			Lon:      geoResult.Longitude,
		})
	}
	return nearby, nil
}

func (s *LocationService) nearbyFromMongo(ctx context.Context, own models.Location, sharers []primitive.ObjectID, radiusKm float64) ([]models.NearbyContact, error) {
	filter := bson.M{
		"user_id": bson.M{"$in": sharers},
		"point": bson.M{"$nearSphere": bson.M{
			"$geometry":    models.NewGeoPoint(own.Latitude, own.Longitude),
			"$maxDistance": radiusKm * 1000,
		}},
	}
	locations, err := findAll[models.Location](ctx, s.locations, filter)
	if err != nil {
		return nil, errors.DB(err, "failed to search nearby users")
	}
	nearby := make([]models.NearbyContact, len(locations))
	for i, loc := range locations {
		nearby[i] = models.NearbyContact{
			UserID:   loc.UserID.Hex(),
			Distance: distanceKm(own.Latitude, own.Longitude, loc.Latitude, loc.Longitude),
			Lat:      loc.Latitude,
			Lon:      loc.Longitude,
		}
	}
	return nearby, nil
}

// distanceKm is the haversine distance between two points.
func distanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// Subscribe listens for location updates of the given users.
func (s *LocationService) Subscribe(ctx context.Context, users []primitive.ObjectID) *redis.PubSub {
	channels := make([]string, len(users))
	for i, id := range users {
		channels[i] = locationChannel(id.Hex())
	}
	return s.redisClient.Subscribe(ctx, channels...)
}

func (s *LocationService) setSharing(ctx context.Context, user primitive.ObjectID, enabled bool) error {
	update := bson.M{"$set": bson.M{"user_id": user, "enabled": enabled}}
	if _, err := s.sharingStatus.UpdateOne(ctx, bson.M{"user_id": user}, update, options.Update().SetUpsert(true)); err != nil {
		return errors.DB(err, "failed to update sharing status")
	}
	return nil
}

func (s *LocationService) publish(ctx context.Context, update models.LocationUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		s.log.WithError(err).Warn("Failed to marshal location update")
		return
	}
	if err := s.redisClient.Publish(ctx, locationChannel(update.UserID), payload).Err(); err != nil {
		s.log.WithError(err).WithField("user_id", update.UserID).Warn("Failed to publish location update")
	}
}

func locationChannel(userID string) string {
	return "location:" + userID
}
