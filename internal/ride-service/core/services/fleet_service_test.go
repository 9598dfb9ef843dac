package services

import (
	"context"
	"testing"
	"time"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/adapters/driven/memstore"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"
)

type fleetFixture struct {
	svc     *FleetService
	owners  *memstore.OwnersRepo
	cars    *memstore.CarsRepo
	drivers *memstore.DriversRepo
	rides   *memstore.RidesRepo
	owner   model.Caller
	rival   model.Caller
}

func newFleetFixture(t *testing.T) *fleetFixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	f := &fleetFixture{
		owners:  memstore.NewOwnersRepo(store),
		cars:    memstore.NewCarsRepo(store),
		drivers: memstore.NewDriversRepo(store),
		rides:   memstore.NewRidesRepo(store),
		owner:   model.Caller{ID: "owner-1", Role: model.RoleOwner},
		rival:   model.Caller{ID: "owner-2", Role: model.RoleOwner},
	}
	f.svc = NewFleetService(mylogger.Discard(), f.owners, f.cars, f.drivers, f.rides)

	now := time.Now().UTC()
	for _, o := range []model.Caller{f.owner, f.rival} {
		if _, err := f.owners.Create(ctx, model.Owner{ID: o.ID, Name: o.ID, Email: o.ID + "@fleet.kz", CreatedAt: now}); err != nil {
			t.Fatal(err)
		}
	}
	ownerId := f.owner.ID
	for _, id := range []string{"fd-1", "fd-2"} {
		if _, err := f.drivers.Create(ctx, model.Driver{ID: id, Name: id, Email: id + "@fleet.kz", OwnerId: &ownerId, IsVerified: true, CreatedAt: now}); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func carReq(number string) dto.CarRequestDto {
	return dto.CarRequestDto{Type: "Sedan", Brand: "Toyota", Model: "Camry", Seats: 4, Number: number, Year: "2021"}
}

func TestFleetCarLifecycle(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()

	car, err := f.svc.AddCar(ctx, f.owner, carReq("a 123 bc"))
	if err != nil {
		t.Fatalf("add car: %v", err)
	}
	if car.Number != "A 123 BC" || car.Type != model.CarSedan || car.Status != model.CarAvailable {
		t.Fatalf("unexpected car %+v", car)
	}

	bad := carReq("x")
	bad.Seats = 0
	_, err = f.svc.AddCar(ctx, f.owner, bad)
	wantKind(t, err, myerrors.ErrValidation)

	_, err = f.svc.AddCar(ctx, model.Caller{ID: "rider", Role: model.RoleRider}, carReq("B 1"))
	wantKind(t, err, myerrors.ErrForbidden)

	cars, err := f.svc.ListCars(ctx, f.owner)
	if err != nil || len(cars) != 1 {
		t.Fatalf("list cars: %v %d", err, len(cars))
	}

	upd := carReq("A 123 BC")
	upd.Seats = 6
	car, err = f.svc.UpdateCar(ctx, f.owner, car.ID, upd)
	if err != nil || car.Seats != 6 {
		t.Fatalf("update car: %v %+v", err, car)
	}

	_, err = f.svc.UpdateCar(ctx, f.rival, car.ID, upd)
	wantKind(t, err, myerrors.ErrForbidden)

	// an engaged car cannot be deleted
	if _, err := f.svc.AssignCar(ctx, f.owner, "fd-1", car.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	wantKind(t, f.svc.DeleteCar(ctx, f.owner, car.ID), myerrors.ErrConflict)

	if _, err := f.svc.ReleaseCar(ctx, f.owner, "fd-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := f.svc.DeleteCar(ctx, f.owner, car.ID); err != nil {
		t.Fatalf("delete car: %v", err)
	}
	wantKind(t, f.svc.DeleteCar(ctx, f.owner, car.ID), myerrors.ErrNotFound)
}

func TestFleetAssignCarExclusive(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()

	car, err := f.svc.AddCar(ctx, f.owner, carReq("C 1"))
	if err != nil {
		t.Fatal(err)
	}
	driver, err := f.svc.AssignCar(ctx, f.owner, "fd-1", car.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if driver.CarId == nil || *driver.CarId != car.ID {
		t.Fatalf("car not recorded on driver: %+v", driver)
	}
	stored, _ := f.cars.FindById(ctx, car.ID)
	if stored.Status != model.CarEngaged {
		t.Fatalf("expected engaged car, got %s", stored.Status)
	}

	// assigning again to the same driver is a no-op
	if _, err := f.svc.AssignCar(ctx, f.owner, "fd-1", car.ID); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	_, err = f.svc.AssignCar(ctx, f.owner, "fd-2", car.ID)
	wantKind(t, err, myerrors.ErrConflict)

	_, err = f.svc.AssignCar(ctx, f.rival, "fd-1", car.ID)
	wantKind(t, err, myerrors.ErrForbidden)
}

func TestFleetSwitchCarKeepsOldOnConflict(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()

	ids := make([]string, 3)
	for i, number := range []string{"S 1", "S 2", "S 3"} {
		car, err := f.svc.AddCar(ctx, f.owner, carReq(number))
		if err != nil {
			t.Fatal(err)
		}
		ids[i] = car.ID
	}
	held, taken, spare := ids[0], ids[1], ids[2]
	if _, err := f.svc.AssignCar(ctx, f.owner, "fd-1", held); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.AssignCar(ctx, f.owner, "fd-2", taken); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.AssignCar(ctx, f.owner, "fd-1", taken)
	wantKind(t, err, myerrors.ErrConflict)

	driver, err := f.drivers.FindById(ctx, "fd-1")
	if err != nil {
		t.Fatal(err)
	}
	if driver.CarId == nil || *driver.CarId != held {
		t.Fatalf("driver lost its car: %v", driver.CarId)
	}
	if car, _ := f.cars.FindById(ctx, held); car.Status != model.CarEngaged {
		t.Fatalf("held car became %s", car.Status)
	}

	// a successful switch frees the previous car
	if _, err := f.svc.AssignCar(ctx, f.owner, "fd-1", spare); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if car, _ := f.cars.FindById(ctx, held); car.Status != model.CarAvailable {
		t.Fatalf("previous car still %s", car.Status)
	}
	if car, _ := f.cars.FindById(ctx, spare); car.Status != model.CarEngaged {
		t.Fatalf("new car is %s", car.Status)
	}
}

func TestFleetDriversAndRides(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()

	drivers, err := f.svc.ListDrivers(ctx, f.owner)
	if err != nil || len(drivers) != 2 {
		t.Fatalf("list drivers: %v %d", err, len(drivers))
	}
	rivalDrivers, err := f.svc.ListDrivers(ctx, f.rival)
	if err != nil || len(rivalDrivers) != 0 {
		t.Fatalf("rival must see no drivers: %v %d", err, len(rivalDrivers))
	}

	driverId := "fd-1"
	now := time.Now().UTC()
	for i, st := range []model.RideStatus{model.RideAccepted, model.RideCompleted} {
		_, err := f.rides.CreateRide(ctx, model.Rides{
			ID:        []string{"r-live", "r-done"}[i],
			RiderId:   "rider",
			DriverId:  &driverId,
			Status:    st,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	all, err := f.svc.ListRides(ctx, f.owner, false)
	if err != nil || len(all) != 2 {
		t.Fatalf("all rides: %v %d", err, len(all))
	}
	live, err := f.svc.ListRides(ctx, f.owner, true)
	if err != nil || len(live) != 1 || live[0].ID != "r-live" {
		t.Fatalf("ongoing rides: %v %+v", err, live)
	}

	blocked, err := f.svc.BlockDriver(ctx, f.owner, "fd-2", true)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if blocked.Status != model.DriverBlocked || blocked.IsAvailable {
		t.Fatalf("unexpected blocked driver %+v", blocked)
	}
	_, err = f.svc.BlockDriver(ctx, f.rival, "fd-2", false)
	wantKind(t, err, myerrors.ErrForbidden)

	if err := f.svc.DeleteDriver(ctx, f.owner, "fd-2"); err != nil {
		t.Fatalf("delete driver: %v", err)
	}
	_, err = f.drivers.FindById(ctx, "fd-2")
	wantKind(t, err, myerrors.ErrNotFound)
}

func TestFleetDeleteAccountCascades(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()

	car, err := f.svc.AddCar(ctx, f.owner, carReq("D 1"))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteAccount(ctx, f.owner); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	_, err = f.cars.FindById(ctx, car.ID)
	wantKind(t, err, myerrors.ErrNotFound)
	_, err = f.drivers.FindById(ctx, "fd-1")
	wantKind(t, err, myerrors.ErrNotFound)

	_, err = f.svc.ListCars(ctx, f.owner)
	wantKind(t, err, myerrors.ErrNotFound)
}
