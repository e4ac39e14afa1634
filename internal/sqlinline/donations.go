package sqlinline

const QInsertDonation = `--sql 5210e547-ff51-4556-b439-b5fa8bf54db4
insert into donations(id, user_id, donor_name, email, phone, city, message, donation_type,
                      amount, payment_method, item_type, quantity, item_description, status, created_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8::text,
        $9::numeric, $10::text, $11::text, $12::int, $13::text, $14::text, $15::timestamptz);
`

const QGetDonation = `--sql e7c561ec-b90d-4649-bcb6-c45e7f61dee7
select id::text, user_id, donor_name, email, phone, city, message, donation_type,
       amount, payment_method, item_type, quantity, item_description, status, created_at
from donations
where id = $1::uuid;
`

const QListDonationsByUser = `--sql 07f303d5-6323-432c-9162-f3468deb81bc
select id::text, user_id, donor_name, email, phone, city, message, donation_type,
       amount, payment_method, item_type, quantity, item_description, status, created_at
from donations
where user_id = $1::text
order by created_at desc;
`

// MListDonations prefixes the dynamically built listing query.
const MListDonations = "--sql fa93b64f-7ad3-4e3b-b51e-5f9b89962925\n"

const QUpdateDonationStatus = `--sql 65c82798-defb-48a7-bac1-c97cb291e07a
update donations
set status = $3::text
where id = $1::uuid and status = $2::text;
`

const QDonationStatus = `--sql c42619d9-541e-49c6-a533-5ca0aca2bff1
select status from donations where id = $1::uuid;
`
